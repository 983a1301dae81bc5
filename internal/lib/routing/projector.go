package routing

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// projectionZoom is the zoom level of the planar space used for segment
// geometry. Distances are never measured there.
const projectionZoom = 15

var projector = geo.NewProjector()

// ClosestPointOnRoute finds the point of the route polyline nearest to
// point, and the distance travelled along the route to reach it.
// It returns false for an empty route.
func ClosestPointOnRoute(route *Route, point geo.LatLng) (geo.LatLngDistance, bool) {
	points := route.ItineraryPoints
	if len(points) == 0 {
		return geo.LatLngDistance{}, false
	}

	if len(points) == 1 {
		return geo.LatLngDistance{LatLng: points[0].LatLng()}, true
	}

	target := projector.Project(point, projectionZoom)

	minDistance := math.Inf(1)
	var closestPoint r2.Point
	closestSegmentEnd := 0
	distanceAtClosestSegmentEnd := 0.0

	walked := 0.0
	segmentStart := projector.Project(points[0].LatLng(), projectionZoom)
	for i := 1; i < len(points); i++ {
		walked += points[i-1].Distance
		segmentEnd := projector.Project(points[i].LatLng(), projectionZoom)

		query := newSegmentQuery(segmentStart, segmentEnd)
		closestOnSegment := query.closest(target)
		distance := closestOnSegment.Sub(target).Norm()

		// strict comparison keeps the first segment on ties
		if distance < minDistance {
			minDistance = distance
			closestPoint = closestOnSegment
			closestSegmentEnd = i
			distanceAtClosestSegmentEnd = walked
		}

		segmentStart = segmentEnd
	}

	closestLatLng := projector.Unproject(closestPoint, projectionZoom)
	distance := distanceAtClosestSegmentEnd -
		geo.Distance(closestLatLng, points[closestSegmentEnd].LatLng())

	// Projection round trips are not exact
	distance = math.Max(0, math.Min(route.Distance, distance))

	return geo.LatLngDistance{LatLng: closestLatLng, Distance: distance}, true
}

// NearestPoint returns the index of the itinerary point closest to ll by
// great-circle distance, scanning every point
func NearestPoint(route *Route, ll geo.LatLng) (int, bool) {
	nearest := -1
	minDistance := math.Inf(1)

	for i, p := range route.ItineraryPoints {
		distance := geo.Distance(ll, p.LatLng())
		if distance < minDistance {
			minDistance = distance
			nearest = i
		}
	}

	return nearest, nearest >= 0
}

// segmentQuery finds the point of segment a,b closest to a point
type segmentQuery struct {
	a, ab    r2.Point
	invLenSq float64
}

func newSegmentQuery(a, b r2.Point) segmentQuery {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return segmentQuery{a: a, ab: ab}
	}
	return segmentQuery{a: a, ab: ab, invLenSq: 1 / lenSq}
}

func (q segmentQuery) closest(p r2.Point) r2.Point {
	if q.invLenSq == 0 {
		return q.a
	}
	t := p.Sub(q.a).Dot(q.ab) * q.invLenSq
	if t <= 0 {
		return q.a
	} else if t >= 1 {
		return q.a.Add(q.ab)
	}
	return q.a.Add(q.ab.Mul(t))
}
