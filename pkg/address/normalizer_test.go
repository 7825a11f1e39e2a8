package address

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grundbuch-online/portal/pkg/config"
)

type stubGeocoder struct {
	addr *Normalized
	err  error
	seen Input
}

func (s *stubGeocoder) Lookup(ctx context.Context, in Input) (*Normalized, error) {
	s.seen = in
	return s.addr, s.err
}

func TestNormalizer_Normalize(t *testing.T) {
	geo := &stubGeocoder{addr: &Normalized{Street: "Mariahilfer Straße", City: "Wien", State: "Wien"}}
	n := NewNormalizer(geo, nil)

	addr, ok := n.Normalize(context.Background(), Input{Street: "mariahilfer str", HouseNumber: "9/2/11", PostalCode: "1060", City: "wien"})
	require.True(t, ok)
	assert.Equal(t, "9", geo.seen.HouseNumber, "unit suffix must be stripped before lookup")
	assert.Equal(t, "9", addr.HouseNumber)
	assert.Equal(t, "1060", addr.PostalCode)
	assert.Equal(t, SearchStandard, addr.Mode())
}

func TestNormalizer_NoResult(t *testing.T) {
	for name, geo := range map[string]Geocoder{
		"error":    &stubGeocoder{err: errors.New("connection refused")},
		"empty":    &stubGeocoder{err: ErrNoResult},
		"nil addr": &stubGeocoder{},
		"disabled": nil,
	} {
		t.Run(name, func(t *testing.T) {
			addr, ok := NewNormalizer(geo, nil).Normalize(context.Background(), Input{Street: "x"})
			assert.False(t, ok)
			assert.Nil(t, addr)
		})
	}
}

func TestNormalizer_Resolve(t *testing.T) {
	t.Run("locality", func(t *testing.T) {
		geo := &stubGeocoder{addr: &Normalized{Street: "Oberndorf", City: "Gemeinde X", IsLocality: true}}
		res := NewNormalizer(geo, nil).Resolve(context.Background(), Input{Street: "oberndorf", HouseNumber: "12/3"})

		assert.Equal(t, SourceGeocoder, res.Source)
		assert.Equal(t, SearchExtended, res.Mode)
		assert.Equal(t, HouseNumber{HouseNumber: "12", DoorNumber: "3"}, res.Parts)
	})

	t.Run("fallback", func(t *testing.T) {
		geo := &stubGeocoder{err: errors.New("timeout")}
		res := NewNormalizer(geo, nil).Resolve(context.Background(), Input{
			Street: "GROSSE NEUGASSE", HouseNumber: "9/2/11", PostalCode: "1040", City: "WIEN",
		})

		assert.Equal(t, SourceFallback, res.Source)
		assert.Equal(t, SearchStandard, res.Mode)
		assert.Equal(t, "Grosse Neugasse", res.Address.Street)
		assert.Equal(t, "Wien", res.Address.City)
		assert.Equal(t, "9/2/11", res.Address.HouseNumber)
		assert.False(t, res.Address.IsLocality)
	})
}

func TestNominatimGeocoder_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		want    *Normalized
		wantErr error
	}{
		{
			name: "street",
			body: []map[string]any{{"address": map[string]string{
				"road": "Mariahilfer Straße", "house_number": "9", "postcode": "1060", "city": "Wien", "state": "Wien",
			}}},
			want: &Normalized{Street: "Mariahilfer Straße", HouseNumber: "9", PostalCode: "1060", City: "Wien", State: "Wien"},
		},
		{
			name: "locality",
			body: []map[string]any{{"address": map[string]string{
				"hamlet": "Oberndorf", "municipality": "Gemeinde X", "state": "Niederösterreich",
			}}},
			want: &Normalized{Street: "Oberndorf", City: "Gemeinde X", State: "Niederösterreich", IsLocality: true},
		},
		{
			name:    "empty",
			body:    []any{},
			wantErr: ErrNoResult,
		},
		{
			name:    "unclassifiable",
			body:    []map[string]any{{"address": map[string]string{"state": "Tirol"}}},
			wantErr: ErrNoResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "portal-test", r.Header.Get("User-Agent"))
				assert.Equal(t, "at", r.URL.Query().Get("countrycodes"))
				assert.Equal(t, "9 Mariahilfer Straße", r.URL.Query().Get("street"))
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			g := NewNominatimGeocoder(config.GeocoderConfig{
				BaseURL: srv.URL, UserAgent: "portal-test", RequestsPerSecond: 100, Timeout: time.Second,
			})
			got, err := g.Lookup(context.Background(), Input{Street: "Mariahilfer Straße", HouseNumber: "9", City: "Wien"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNominatimGeocoder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(config.GeocoderConfig{BaseURL: srv.URL, RequestsPerSecond: 100, Timeout: time.Second})
	_, err := g.Lookup(context.Background(), Input{Street: "x"})
	assert.Error(t, err)

	res := NewNormalizer(g, nil).Resolve(context.Background(), Input{Street: "hauptplatz", HouseNumber: "1"})
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "Hauptplatz", res.Address.Street)
}
