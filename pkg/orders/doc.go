// Package orders holds submitted Grundbuch orders: the order model, the
// whitelisted admin patch and the Service that creates orders and hands
// them to downstream dispatch. Persistence lives in orders/store.
package orders
