package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Patch is an admin update. Only these fields may be changed after an
// order has been placed.
type Patch struct {
	Status        *Status        `json:"status,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	Documents     *[]Document    `json:"documents,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.Documents == nil && p.Notes == nil
}

var patchFields = map[string]bool{
	"status":         true,
	"payment_status": true,
	"documents":      true,
	"notes":          true,
}

// ParsePatch decodes a JSON patch body. Unknown fields are rejected by name
// rather than silently ignored.
func ParsePatch(body []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Patch{}, &FieldError{Field: "body", Reason: "must be a JSON object"}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !patchFields[k] {
			return Patch{}, &FieldError{Field: k, Reason: "cannot be updated"}
		}
	}

	var p Patch
	if v, ok := raw["status"]; ok {
		var s Status
		if err := json.Unmarshal(v, &s); err != nil || !s.Valid() {
			return Patch{}, &FieldError{Field: "status", Reason: fmt.Sprintf("must be one of %s", statusList)}
		}
		p.Status = &s
	}
	if v, ok := raw["payment_status"]; ok {
		var s PaymentStatus
		if err := json.Unmarshal(v, &s); err != nil || !s.Valid() {
			return Patch{}, &FieldError{Field: "payment_status", Reason: "must be one of unpaid, paid, refunded"}
		}
		p.PaymentStatus = &s
	}
	if v, ok := raw["documents"]; ok {
		docs, err := parseDocuments(v)
		if err != nil {
			return Patch{}, err
		}
		p.Documents = &docs
	}
	if v, ok := raw["notes"]; ok {
		var notes string
		if err := json.Unmarshal(v, &notes); err != nil {
			return Patch{}, &FieldError{Field: "notes", Reason: "must be a string"}
		}
		p.Notes = &notes
	}

	if p.Empty() {
		return Patch{}, &FieldError{Field: "body", Reason: "no updatable field present"}
	}
	return p, nil
}

const statusList = "pending, processing, completed, failed, cancelled"

func parseDocuments(v json.RawMessage) ([]Document, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
		return nil, &FieldError{Field: "documents", Reason: "must be an array"}
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.DisallowUnknownFields()
	var docs []Document
	if err := dec.Decode(&docs); err != nil {
		return nil, &FieldError{Field: "documents", Reason: err.Error()}
	}
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}
