package address

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/telemetry/tracing"
)

// localityKeys are checked in order when a result carries no road.
var localityKeys = []string{"hamlet", "isolated_dwelling", "locality", "village", "suburb", "neighbourhood"}

var cityKeys = []string{"city", "town", "village", "municipality"}

// NominatimGeocoder queries a Nominatim-compatible structured search.
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	email      string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewNominatimGeocoder creates a geocoder throttled to
// cfg.RequestsPerSecond.
func NewNominatimGeocoder(cfg config.GeocoderConfig) *NominatimGeocoder {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultGeocoderRate
	}
	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		email:      cfg.Email,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type nominatimResult struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Lookup returns the first result, or ErrNoResult.
func (g *NominatimGeocoder) Lookup(ctx context.Context, in Input) (*Normalized, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, span := tracing.Start(ctx, "geocoder.lookup")
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("countrycodes", "at")
	q.Set("limit", "1")
	street := strings.TrimSpace(strings.TrimSpace(in.HouseNumber) + " " + strings.TrimSpace(in.Street))
	if street != "" {
		q.Set("street", street)
	}
	if in.PostalCode != "" {
		q.Set("postalcode", strings.TrimSpace(in.PostalCode))
	}
	if in.City != "" {
		q.Set("city", strings.TrimSpace(in.City))
	}
	if g.email != "" {
		q.Set("email", g.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		spanErr = err
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "de")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		spanErr = err
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		spanErr = fmt.Errorf("geocoder returned status %d", resp.StatusCode)
		return nil, spanErr
	}

	var results []nominatimResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&results); err != nil {
		spanErr = err
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}
	addr := classify(results[0].Address)
	if addr.Street == "" {
		return nil, ErrNoResult
	}
	return addr, nil
}

// classify turns Nominatim address details into a Normalized address. A
// result with a road is a street address; otherwise the first settlement
// name found is treated as a locality. This is a heuristic and does not
// cover every Austrian address shape.
func classify(a map[string]string) *Normalized {
	n := &Normalized{
		HouseNumber: a["house_number"],
		PostalCode:  a["postcode"],
		State:       a["state"],
		City:        first(a, cityKeys),
	}
	if road := a["road"]; road != "" {
		n.Street = road
		return n
	}
	if name := first(a, localityKeys); name != "" {
		n.Street = name
		n.IsLocality = true
	}
	return n
}

func first(a map[string]string, keys []string) string {
	for _, k := range keys {
		if v := a[k]; v != "" {
			return v
		}
	}
	return ""
}
