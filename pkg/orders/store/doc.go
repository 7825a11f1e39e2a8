// Package store provides the order persistence backends: an in-memory map
// for tests and development, a local SQLite file and a hosted Postgres
// database.
package store
