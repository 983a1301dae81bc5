package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// EarthRadius is the mean Earth radius in meters used by Distance
const EarthRadius = 6371e3

// Distance calculates the great-circle distance in meters between two points
// using the spherical law of cosines
func Distance(a, b LatLng) float64 {
	// acos is unstable at zero separation
	if a.Lat == b.Lat && a.Lng == b.Lng {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (NormalizeLng(b.Lng) - NormalizeLng(a.Lng)) * math.Pi / 180

	cosine := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLng)

	// Rounding can push nearly coincident points slightly outside [-1, 1]
	cosine = math.Max(-1, math.Min(1, cosine))

	return math.Acos(cosine) * EarthRadius
}

// NormalizeLng reduces a longitude to (-180, 180]
func NormalizeLng(lng float64) float64 {
	lng = math.Mod(lng, 360)
	if lng > 180 {
		lng -= 360
	} else if lng <= -180 {
		lng += 360
	}
	return lng
}

// DecodePolyline decodes a Google encoded polyline string to a point sequence
func DecodePolyline(encoded string) ([]LatLng, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}
	if len(rest) != 0 {
		return nil, errors.New("failed to decode polyline: trailing data")
	}

	points := make([]LatLng, len(coords))
	for i, coord := range coords {
		points[i] = LatLng{Lat: coord[0], Lng: coord[1]}

		if !IsValid(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// EncodePolyline encodes a point sequence with the Google polyline algorithm
func EncodePolyline(points []LatLng) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// NewLatLng creates a LatLng from latitude and longitude values with validation
func NewLatLng(lat, lng float64) (LatLng, error) {
	ll := LatLng{Lat: lat, Lng: lng}
	if !IsValid(ll) {
		return LatLng{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return ll, nil
}

// IsValid validates latitude and longitude values
func IsValid(ll LatLng) bool {
	return ll.Lat >= -90 && ll.Lat <= 90 &&
		ll.Lng >= -180 && ll.Lng <= 180
}
