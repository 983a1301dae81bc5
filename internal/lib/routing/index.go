package routing

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/s2"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// indexCandidates is the number of R-tree neighbours refined by
// great-circle distance
const indexCandidates = 8

// VertexIndex provides O(log n) nearest itinerary point queries using an
// R-tree, for routes too large for a linear scan.
//
// Points are keyed by their position on the unit sphere. Chord length grows
// with great-circle distance, so the R-tree neighbour order is the
// great-circle order at any latitude and across the antimeridian.
type VertexIndex struct {
	route *Route
	rtree *rtreego.Rtree
}

// indexedVertex wraps an itinerary point position for R-tree storage
type indexedVertex struct {
	index int
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface.
func (v *indexedVertex) Bounds() rtreego.Rect {
	return v.rect
}

// NewVertexIndex indexes every itinerary point of route
func NewVertexIndex(route *Route) *VertexIndex {
	x := &VertexIndex{
		route: route,
		rtree: rtreego.NewTree(3, 25, 50),
	}

	for i, p := range route.ItineraryPoints {
		x.rtree.Insert(&indexedVertex{index: i, rect: pointRect(sphereKey(p.LatLng()))})
	}

	return x
}

// Size returns the number of indexed points
func (x *VertexIndex) Size() int {
	return x.rtree.Size()
}

// Nearest returns the index of the itinerary point closest to ll
func (x *VertexIndex) Nearest(ll geo.LatLng) (int, bool) {
	if x.rtree.Size() == 0 {
		return -1, false
	}

	nearest := -1
	minDistance := math.Inf(1)

	for _, spatial := range x.rtree.NearestNeighbors(indexCandidates, sphereKey(ll)) {
		vertex, ok := spatial.(*indexedVertex)
		if !ok || vertex == nil {
			continue
		}

		distance := geo.Distance(ll, x.route.ItineraryPoints[vertex.index].LatLng())
		// ties go to the earliest point, as in a linear scan
		if distance < minDistance || (distance == minDistance && vertex.index < nearest) {
			minDistance = distance
			nearest = vertex.index
		}
	}

	return nearest, nearest >= 0
}

// sphereKey returns the unit sphere position of ll
func sphereKey(ll geo.LatLng) rtreego.Point {
	v := s2.PointFromLatLng(s2.LatLngFromDegrees(ll.Lat, ll.Lng))
	return rtreego.Point{v.X, v.Y, v.Z}
}

func pointRect(p rtreego.Point) rtreego.Rect {
	// R-tree requires non-zero dimensions
	const epsilon = 1e-12
	rect, _ := rtreego.NewRect(p, []float64{epsilon, epsilon, epsilon})
	return rect
}
