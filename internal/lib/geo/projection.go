package geo

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// TileSize is the pixel size of a map tile at zoom 0
const TileSize = 256

// WebMercatorProjection maps the sphere onto the unit square, origin at the
// upper left corner, y growing southward.
type WebMercatorProjection struct{}

// NewWebMercatorProjection returns the spherical Web Mercator projection used
// by slippy map tiles
func NewWebMercatorProjection() *WebMercatorProjection {
	return &WebMercatorProjection{}
}

// Project converts a point on the sphere to a projected 2D point.
func (p *WebMercatorProjection) Project(pt s2.Point) r2.Point {
	return p.FromLatLng(s2.LatLngFromPoint(pt))
}

// Unproject converts a projected 2D point to a point on the sphere.
func (p *WebMercatorProjection) Unproject(pt r2.Point) s2.Point {
	return s2.PointFromLatLng(p.ToLatLng(pt))
}

// FromLatLng returns the LatLng projected into an R2 Point.
func (p *WebMercatorProjection) FromLatLng(ll s2.LatLng) r2.Point {
	y := (1 - math.Asinh(math.Tan(float64(ll.Lat)))/math.Pi) / 2
	return r2.Point{X: ((float64(ll.Lng) / math.Pi) + 1) / 2, Y: y}
}

// ToLatLng returns the LatLng projected from the given R2 Point.
func (p *WebMercatorProjection) ToLatLng(pt r2.Point) s2.LatLng {
	lat := math.Atan(math.Sinh(math.Pi * (1 - 2*pt.Y)))
	return s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle((pt.X*2 - 1) * math.Pi)}
}

// Interpolate returns the point obtained by interpolating the given
// fraction of the distance along the line from A to B.
func (p *WebMercatorProjection) Interpolate(f float64, a, b r2.Point) r2.Point {
	return a.Mul(1 - f).Add(b.Mul(f))
}

// WrapDistance reports the coordinate wrapping distance along each axis.
func (p *WebMercatorProjection) WrapDistance() r2.Point {
	return r2.Point{X: 1, Y: 0}
}

// unitProjection maps the sphere onto the unit square and back
type unitProjection interface {
	FromLatLng(ll s2.LatLng) r2.Point
	ToLatLng(pt r2.Point) s2.LatLng
}

// Projector converts between coordinates and a planar pixel space at a given
// zoom level. It only serves local geometry (segment distances,
// interpolation, angles); distances on the ground go through Distance.
type Projector struct {
	projection unitProjection
}

// NewProjector creates a Projector over Web Mercator
func NewProjector() *Projector {
	return &Projector{projection: NewWebMercatorProjection()}
}

// Project returns the pixel position of ll at zoom
func (p *Projector) Project(ll LatLng, zoom int) r2.Point {
	unit := p.projection.FromLatLng(s2.LatLngFromDegrees(ll.Lat, ll.Lng))
	return unit.Mul(scale(zoom))
}

// Unproject returns the coordinate at pixel position pt at zoom
func (p *Projector) Unproject(pt r2.Point, zoom int) LatLng {
	ll := p.projection.ToLatLng(pt.Mul(1 / scale(zoom)))
	return LatLng{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// AddPoints returns a + b
func AddPoints(a, b r2.Point) r2.Point {
	return a.Add(b)
}

// SubtractPoints returns a - b
func SubtractPoints(a, b r2.Point) r2.Point {
	return a.Sub(b)
}

func scale(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}
