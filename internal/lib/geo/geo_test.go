package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	// Highway 4: Angels Camp to Murphys
	angelsCamp := LatLng{Lat: 38.0675, Lng: -120.5436}
	murphys := LatLng{Lat: 38.1391, Lng: -120.4561}

	distance := Distance(angelsCamp, murphys)
	assert.InDelta(t, 11046, distance, 100, "Distance should be approximately 11.0km")

	// One degree of longitude on the equator
	distance = Distance(LatLng{Lat: 0, Lng: 0}, LatLng{Lat: 0, Lng: 1})
	assert.InDelta(t, EarthRadius*math.Pi/180, distance, 1e-6)
}

func TestDistance_SamePointIsZero(t *testing.T) {
	points := []LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 38.0675, Lng: -120.5436},
		{Lat: 50.50881, Lng: 5.49591},
		{Lat: -89.9999, Lng: 179.9999},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p, p), "Distance from %v to itself should be 0", p)
	}
}

func TestDistance_NearlyCoincidentPointsAreNotNaN(t *testing.T) {
	a := LatLng{Lat: 50.50881, Lng: 5.49591}
	b := LatLng{Lat: 50.50881, Lng: 5.4959100000001}

	distance := Distance(a, b)
	assert.False(t, math.IsNaN(distance))
	assert.Less(t, distance, 1.0)
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]LatLng{
		{{Lat: 38.0675, Lng: -120.5436}, {Lat: 38.1391, Lng: -120.4561}},
		{{Lat: 0, Lng: 179.5}, {Lat: 0, Lng: -179.5}},
		{{Lat: -33.9, Lng: 18.4}, {Lat: 51.5, Lng: -0.12}},
	}

	for _, pair := range pairs {
		assert.Equal(t, Distance(pair[0], pair[1]), Distance(pair[1], pair[0]))
	}
}

func TestDistance_AntimeridianWraps(t *testing.T) {
	// 1 degree apart across the antimeridian, not 359
	distance := Distance(LatLng{Lat: 0, Lng: 179.5}, LatLng{Lat: 0, Lng: -179.5})
	assert.InDelta(t, EarthRadius*math.Pi/180, distance, 1e-3)

	distance = Distance(LatLng{Lat: 0, Lng: 190}, LatLng{Lat: 0, Lng: -170})
	assert.Equal(t, 0.0, math.Round(distance))
}

func TestNormalizeLng(t *testing.T) {
	assert.Equal(t, 180.0, NormalizeLng(180))
	assert.Equal(t, 180.0, NormalizeLng(-180))
	assert.Equal(t, 170.0, NormalizeLng(-190))
	assert.Equal(t, -170.0, NormalizeLng(190))
	assert.Equal(t, 5.0, NormalizeLng(365))
}

func TestDecodePolyline(t *testing.T) {
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 38.5, points[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, points[0].Lng, 1e-5)
	assert.InDelta(t, 43.252, points[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, points[2].Lng, 1e-5)

	_, err = DecodePolyline("")
	assert.Error(t, err, "Should return error for empty polyline")
}

func TestEncodePolyline(t *testing.T) {
	points := []LatLng{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}

	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(points))
}

func TestNewLatLng(t *testing.T) {
	ll, err := NewLatLng(38.0675, -120.5436)
	require.NoError(t, err)
	assert.Equal(t, LatLng{Lat: 38.0675, Lng: -120.5436}, ll)

	_, err = NewLatLng(200, -300)
	assert.Error(t, err, "Should return error for invalid coordinates")
}

func TestProjector_Project(t *testing.T) {
	projector := NewProjector()

	origin := projector.Project(LatLng{Lat: 0, Lng: 0}, 0)
	assert.InDelta(t, 128, origin.X, 1e-9)
	assert.InDelta(t, 128, origin.Y, 1e-9)

	// Each zoom level doubles the pixel space
	origin = projector.Project(LatLng{Lat: 0, Lng: 0}, 1)
	assert.InDelta(t, 256, origin.X, 1e-9)
	assert.InDelta(t, 256, origin.Y, 1e-9)

	// North is up: y decreases as latitude grows
	north := projector.Project(LatLng{Lat: 10, Lng: 0}, 0)
	assert.Less(t, north.Y, 128.0)

	// East is right
	east := projector.Project(LatLng{Lat: 0, Lng: 10}, 0)
	assert.Greater(t, east.X, 128.0)
}

func TestProjector_RoundTrip(t *testing.T) {
	projector := NewProjector()

	points := []LatLng{
		{Lat: 50.50881, Lng: 5.49591},
		{Lat: 38.0675, Lng: -120.5436},
		{Lat: -33.9, Lng: 18.4},
	}

	for _, p := range points {
		for _, zoom := range []int{0, 10, 17} {
			back := projector.Unproject(projector.Project(p, zoom), zoom)
			assert.InDelta(t, p.Lat, back.Lat, 1e-9)
			assert.InDelta(t, p.Lng, back.Lng, 1e-9)
		}
	}
}

func TestPointArithmetic(t *testing.T) {
	a := r2.Point{X: 3, Y: 4}
	b := r2.Point{X: 1, Y: -2}

	assert.Equal(t, r2.Point{X: 4, Y: 2}, AddPoints(a, b))
	assert.Equal(t, r2.Point{X: 2, Y: 6}, SubtractPoints(a, b))
}

func TestWebMercatorProjection(t *testing.T) {
	projection := NewWebMercatorProjection()

	mid := projection.Interpolate(0.5, r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 1})
	assert.Equal(t, r2.Point{X: 0.5, Y: 0.5}, mid)
	assert.Equal(t, r2.Point{X: 1, Y: 0}, projection.WrapDistance())

	// sphere points and lat/lng agree
	ll := s2.LatLngFromDegrees(50.6, 5.5)
	fromPoint := projection.Project(s2.PointFromLatLng(ll))
	fromLatLng := projection.FromLatLng(ll)
	assert.InDelta(t, fromLatLng.X, fromPoint.X, 1e-12)
	assert.InDelta(t, fromLatLng.Y, fromPoint.Y, 1e-12)

	back := s2.LatLngFromPoint(projection.Unproject(fromPoint))
	assert.InDelta(t, 50.6, back.Lat.Degrees(), 1e-9)
	assert.InDelta(t, 5.5, back.Lng.Degrees(), 1e-9)
}
