package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maiimostafaa/voyager-sub001/internal/shared/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nominatim(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "voyager-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			switch r.URL.Query().Get("q") {
			case "Paris":
				_, _ = w.Write([]byte(`[{"display_name":"Paris, Ile-de-France, France","lat":"48.8566","lon":"2.3522"}]`))
			case "Nowhere":
				_, _ = w.Write([]byte(`[]`))
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		case "/reverse":
			switch r.URL.Query().Get("lat") {
			case "48.8566":
				_, _ = w.Write([]byte(`{"address":{"city":"Paris","country":"France"}}`))
			case "45.1":
				_, _ = w.Write([]byte(`{"address":{"village":"Saint-Martin"}}`))
			default:
				_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	c := NewClient(nominatim(t).URL+"/", "voyager-test", nil)

	places, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)
	require.Len(t, places, 1)
	p, err := places[0].Point()
	require.NoError(t, err)
	assert.InDelta(t, 48.8566, p.Lat, 1e-9)
	assert.InDelta(t, 2.3522, p.Lng, 1e-9)

	_, err = c.Search(context.Background(), "boom")
	assert.Error(t, err)
}

func TestReverse(t *testing.T) {
	c := NewClient(nominatim(t).URL, "voyager-test", nil)

	addr, err := c.Reverse(context.Background(), geo.Point{Lat: 48.8566, Lng: 2.3522})
	require.NoError(t, err)
	assert.Equal(t, "Paris", addr.CityName())

	addr, err = c.Reverse(context.Background(), geo.Point{Lat: 45.1, Lng: 6})
	require.NoError(t, err)
	assert.Equal(t, "Saint-Martin", addr.CityName())

	_, err = c.Reverse(context.Background(), geo.Point{Lat: 0.5, Lng: 0.5})
	assert.Error(t, err)
}

func TestForwardCity(t *testing.T) {
	c := NewClient(nominatim(t).URL, "voyager-test", nil)

	city, point, err := ForwardCity(context.Background(), c, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", city)
	assert.InDelta(t, 48.8566, point.Lat, 1e-9)

	_, _, err = ForwardCity(context.Background(), c, "Nowhere")
	assert.True(t, errors.Is(err, ErrNoResults))
}

type stubGeocoder struct {
	places  []Place
	addr    Address
	revErr  error
	reverse int
	search  int
}

func (s *stubGeocoder) Search(context.Context, string) ([]Place, error) {
	s.search++
	return s.places, nil
}

func (s *stubGeocoder) Reverse(context.Context, geo.Point) (Address, error) {
	s.reverse++
	return s.addr, s.revErr
}

func TestForwardCityFallsBackToDisplayName(t *testing.T) {
	g := &stubGeocoder{
		places: []Place{{DisplayName: "Lyon, Auvergne-Rhone-Alpes, France", Lat: "45.76", Lon: "4.83"}},
		revErr: errors.New("reverse down"),
	}
	city, _, err := ForwardCity(context.Background(), g, "lyon")
	require.NoError(t, err)
	assert.Equal(t, "Lyon", city)
}

func TestPlacePointInvalid(t *testing.T) {
	_, err := Place{Lat: "north", Lon: "1"}.Point()
	assert.Error(t, err)
}
