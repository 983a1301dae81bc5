package routing

import (
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// SampleAt interpolates position and elevation at distance meters from the
// start of the route. Both ends are excluded: it returns false when distance
// is <= 0 or >= route.Distance.
func SampleAt(route *Route, distance float64) (geo.LatLngElevOnRoute, bool) {
	points := route.ItineraryPoints
	if distance <= 0 || distance >= route.Distance || len(points) < 2 {
		return geo.LatLngElevOnRoute{}, false
	}

	walked := 0.0
	for i := 0; i < len(points)-1; i++ {
		segmentDistance := points[i].Distance
		if segmentDistance <= 0 {
			continue
		}

		walked += segmentDistance
		if walked < distance {
			continue
		}

		start, end := points[i], points[i+1]
		overshoot := walked - distance
		scale := (segmentDistance - overshoot) / segmentDistance

		return geo.LatLngElevOnRoute{
			LatLngDistance: geo.NewLatLngDistance(
				start.Lat+(end.Lat-start.Lat)*scale,
				start.Lng+(end.Lng-start.Lng)*scale,
				distance,
			),
			Elevation: start.Elevation + (end.Elevation-start.Elevation)*scale,
			Ascent:    100 * (end.Elevation - start.Elevation) / segmentDistance,
		}, true
	}

	// route.Distance is larger than the sum of its segments
	return geo.LatLngElevOnRoute{}, false
}
