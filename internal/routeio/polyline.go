package routeio

import (
	"fmt"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// FromPolyline builds a route from an encoded polyline. Polylines carry no
// elevation.
func FromPolyline(name, encoded string) (*routing.Route, error) {
	latLngs, err := geo.DecodePolyline(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route polyline: %w", err)
	}
	if len(latLngs) == 0 {
		return nil, ErrNoPoints
	}

	points := make([]routing.ItineraryPoint, len(latLngs))
	for i, ll := range latLngs {
		points[i] = routing.ItineraryPoint{Lat: ll.Lat, Lng: ll.Lng}
	}
	return routing.NewRoute(name, points), nil
}

// EncodePolyline encodes the route geometry as a polyline
func EncodePolyline(route *routing.Route) string {
	return geo.EncodePolyline(route.LatLngs())
}
