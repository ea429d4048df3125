package geocode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maiimostafaa/voyager-sub001/internal/shared/geo"
)

// Place is one forward search hit. Nominatim sends coordinates as strings.
type Place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (p Place) Point() (geo.Point, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

// Address is the part of a reverse lookup the matcher reads.
type Address struct {
	City         string `json:"city,omitempty"`
	Town         string `json:"town,omitempty"`
	Village      string `json:"village,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Country      string `json:"country,omitempty"`
}

// CityName returns the most specific settlement name available.
func (a Address) CityName() string {
	for _, name := range []string{a.City, a.Town, a.Village, a.Municipality} {
		if s := strings.TrimSpace(name); s != "" {
			return s
		}
	}
	return ""
}

type reverseResponse struct {
	Address Address `json:"address"`
	Error   string  `json:"error,omitempty"`
}
