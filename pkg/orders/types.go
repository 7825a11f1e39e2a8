package orders

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"grundbuch-online/portal/pkg/address"
)

// Status is the processing state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Contact is the person who placed the order.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// Property identifies the land-register entry being ordered.
type Property struct {
	KG      string              `json:"kg"`
	EZ      string              `json:"ez"`
	Address *address.Normalized `json:"address,omitempty"`
	Parts   address.HouseNumber `json:"houseNumberParts"`
}

// Products selects what the order contains.
type Products struct {
	Current    bool `json:"current"`
	Historical bool `json:"historical"`
	Deeds      bool `json:"deeds"`
}

// Any reports whether at least one product is selected.
func (p Products) Any() bool {
	return p.Current || p.Historical || p.Deeds
}

// Document is a file delivered for an order.
type Document struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	StoragePath string    `json:"storage_path"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate checks the required document fields.
func (d Document) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return &FieldError{Field: "documents.name", Reason: "is required"}
	case strings.TrimSpace(d.URL) == "":
		return &FieldError{Field: "documents.url", Reason: "is required"}
	case strings.TrimSpace(d.StoragePath) == "":
		return &FieldError{Field: "documents.storage_path", Reason: "is required"}
	case d.Size < 0:
		return &FieldError{Field: "documents.size", Reason: "must not be negative"}
	}
	return nil
}

// Order is a persisted order.
type Order struct {
	ID            string        `json:"id"`
	Number        string        `json:"order_number"`
	Contact       Contact       `json:"contact"`
	Property      Property      `json:"property"`
	Products      Products      `json:"products"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Documents     []Document    `json:"documents"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	if o.Property.Address != nil {
		a := *o.Property.Address
		c.Property.Address = &a
	}
	c.Documents = append([]Document(nil), o.Documents...)
	return &c
}

// Apply writes the set fields of p into o.
func (o *Order) Apply(p Patch, now time.Time) {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.Documents != nil {
		o.Documents = append([]Document(nil), (*p.Documents)...)
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	o.UpdatedAt = now
}

// Draft is an order as submitted by the wizard.
type Draft struct {
	Contact  Contact  `json:"contact"`
	Property Property `json:"property"`
	Products Products `json:"products"`
}

var (
	kgPattern     = regexp.MustCompile(`^\d{5}$`)
	numberPattern = regexp.MustCompile(`^GB-\d{8}-[0-9A-Z]{6}$`)
)

// Validate checks a draft before it becomes an order.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Contact.Name) == "" {
		return &FieldError{Field: "contact.name", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(d.Contact.Email); err != nil {
		return &FieldError{Field: "contact.email", Reason: "is not a valid email address"}
	}
	if !kgPattern.MatchString(strings.TrimSpace(d.Property.KG)) {
		return &FieldError{Field: "property.kg", Reason: "must be exactly 5 digits"}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(d.Property.EZ)); err != nil || n <= 0 {
		return &FieldError{Field: "property.ez", Reason: "must be a positive integer"}
	}
	if !d.Products.Any() {
		return &FieldError{Field: "products", Reason: "at least one product must be selected"}
	}
	return nil
}

// Filter narrows List.
type Filter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

// Matches reports whether o passes the filter.
func (f Filter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	return true
}

// Store persists orders. List returns newest first.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
	Update(ctx context.Context, id string, p Patch, now time.Time) (*Order, error)
	Close() error
}

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateNumber returns a human-readable order number of the form
// GB-YYYYMMDD-XXXXXX.
func GenerateNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return fmt.Sprintf("GB-%s-%s", now.UTC().Format("20060102"), buf)
}

// ValidNumber reports whether s has the order number format.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}
