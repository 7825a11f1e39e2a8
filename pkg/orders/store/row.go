package store

import (
	"encoding/json"
	"fmt"

	"grundbuch-online/portal/pkg/orders"
)

// blobs are the JSON-encoded nested parts of an order row.
type blobs struct {
	contact   []byte
	property  []byte
	products  []byte
	documents []byte
}

func encodeBlobs(o *orders.Order) (blobs, error) {
	var b blobs
	var err error
	if b.contact, err = json.Marshal(o.Contact); err != nil {
		return b, fmt.Errorf("encode contact: %w", err)
	}
	if b.property, err = json.Marshal(o.Property); err != nil {
		return b, fmt.Errorf("encode property: %w", err)
	}
	if b.products, err = json.Marshal(o.Products); err != nil {
		return b, fmt.Errorf("encode products: %w", err)
	}
	docs := o.Documents
	if docs == nil {
		docs = []orders.Document{}
	}
	if b.documents, err = json.Marshal(docs); err != nil {
		return b, fmt.Errorf("encode documents: %w", err)
	}
	return b, nil
}

func (b blobs) decodeInto(o *orders.Order) error {
	if err := json.Unmarshal(b.contact, &o.Contact); err != nil {
		return fmt.Errorf("decode contact: %w", err)
	}
	if err := json.Unmarshal(b.property, &o.Property); err != nil {
		return fmt.Errorf("decode property: %w", err)
	}
	if err := json.Unmarshal(b.products, &o.Products); err != nil {
		return fmt.Errorf("decode products: %w", err)
	}
	if err := json.Unmarshal(b.documents, &o.Documents); err != nil {
		return fmt.Errorf("decode documents: %w", err)
	}
	if o.Documents == nil {
		o.Documents = []orders.Document{}
	}
	return nil
}
