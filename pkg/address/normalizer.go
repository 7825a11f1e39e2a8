package address

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"grundbuch-online/portal/pkg/telemetry/metrics"
)

// SearchMode selects how the register is searched for an address.
type SearchMode string

const (
	// SearchStandard searches by street and house number.
	SearchStandard SearchMode = "standard"
	// SearchExtended searches a named locality without streets.
	SearchExtended SearchMode = "extended"
)

// Input is a free-text address as entered in the wizard.
type Input struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
}

// Normalized is the canonical form of an address.
type Normalized struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode,omitempty"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	IsLocality  bool   `json:"isLocality"`
}

// Mode returns the search mode the address calls for.
func (n Normalized) Mode() SearchMode {
	if n.IsLocality {
		return SearchExtended
	}
	return SearchStandard
}

// ErrNoResult is returned by a Geocoder that found nothing.
var ErrNoResult = errors.New("geocoder returned no result")

// Geocoder looks up the canonical form of an address.
type Geocoder interface {
	Lookup(ctx context.Context, in Input) (*Normalized, error)
}

// Source tells where a resolution came from.
type Source string

const (
	SourceGeocoder Source = "geocoder"
	SourceFallback Source = "fallback"
)

// Resolution is what the wizard needs to continue: the address, its search
// mode and the parsed house number.
type Resolution struct {
	Address Normalized  `json:"address"`
	Mode    SearchMode  `json:"searchMode"`
	Parts   HouseNumber `json:"houseNumberParts"`
	Source  Source      `json:"source"`
}

// Normalizer canonicalizes addresses with a best-effort geocoder lookup.
type Normalizer struct {
	geocoder Geocoder
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewNormalizer creates a normalizer. A nil geocoder makes every address
// take the fallback. collector may be nil.
func NewNormalizer(geocoder Geocoder, collector *metrics.Collector) *Normalizer {
	return &Normalizer{
		geocoder: geocoder,
		metrics:  collector,
		logger:   slog.Default().With("component", "address"),
	}
}

// Normalize looks up in. It returns false instead of an error when the
// lookup fails for any reason, including an empty result.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (*Normalized, bool) {
	if n.geocoder == nil {
		return nil, false
	}

	query := in
	query.HouseNumber = SanitizeHouseNumber(in.HouseNumber)

	addr, err := n.geocoder.Lookup(ctx, query)
	if err != nil || addr == nil {
		result := "error"
		if err == nil || errors.Is(err, ErrNoResult) {
			result = "empty"
		}
		n.metrics.RecordGeocode(result)
		n.logger.DebugContext(ctx, "address lookup failed", "result", result, "error", err)
		return nil, false
	}

	if addr.HouseNumber == "" {
		addr.HouseNumber = query.HouseNumber
	}
	if addr.PostalCode == "" {
		addr.PostalCode = strings.TrimSpace(in.PostalCode)
	}
	if addr.IsLocality {
		n.metrics.RecordGeocode("locality")
	} else {
		n.metrics.RecordGeocode("street")
	}
	return addr, true
}

// Resolve normalizes in, falling back to a title-cased street and a
// standard search when the lookup yields nothing.
func (n *Normalizer) Resolve(ctx context.Context, in Input) Resolution {
	parts := ParseHouseNumber(in.HouseNumber)

	if addr, ok := n.Normalize(ctx, in); ok {
		return Resolution{Address: *addr, Mode: addr.Mode(), Parts: parts, Source: SourceGeocoder}
	}

	n.metrics.RecordGeocode("fallback")
	return Resolution{
		Address: Normalized{
			Street:      TitleCase(strings.TrimSpace(in.Street)),
			HouseNumber: strings.TrimSpace(in.HouseNumber),
			PostalCode:  strings.TrimSpace(in.PostalCode),
			City:        TitleCase(strings.TrimSpace(in.City)),
		},
		Mode:   SearchStandard,
		Parts:  parts,
		Source: SourceFallback,
	}
}
