package geo

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

const earthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a real coordinate.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// WithinBox is the coarse proximity test: both |Δlat| and |Δlng| must be
// strictly below deltaDeg. It is not a great-circle distance.
func WithinBox(a, b Point, deltaDeg float64) bool {
	return math.Abs(a.Lat-b.Lat) < deltaDeg && math.Abs(a.Lng-b.Lng) < deltaDeg
}

// Geohash encodes p and truncates it to precision characters.
func Geohash(p Point, precision int) string {
	h := geohash.Encode(p.Lat, p.Lng)
	if precision > 0 && precision < len(h) {
		return h[:precision]
	}
	return h
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
