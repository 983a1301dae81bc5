package routing

import (
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// ItineraryPoint is a vertex of a route polyline
type ItineraryPoint struct {
	ObjID     int     `json:"objId" msgpack:"id"`
	Lat       float64 `json:"lat" msgpack:"lat"`
	Lng       float64 `json:"lng" msgpack:"lng"`
	Elevation float64 `json:"elev" msgpack:"elev"`
	Distance  float64 `json:"distance" msgpack:"d"` // meters to the next point, 0 for the last one
}

// LatLng returns the coordinates of the point
func (p ItineraryPoint) LatLng() geo.LatLng {
	return geo.LatLng{Lat: p.Lat, Lng: p.Lng}
}

// Route is an ordered polyline of itinerary points. Routes are built by the
// itinerary layer and only read here.
type Route struct {
	ObjID           int              `json:"objId"`
	Name            string           `json:"name"`
	ItineraryPoints []ItineraryPoint `json:"itineraryPoints"`
	Distance        float64          `json:"distance"`        // sum of ItineraryPoints[i].Distance
	ChainedDistance float64          `json:"chainedDistance"` // offset of this route inside a chained travel
}

// First returns the first itinerary point, or false for an empty route
func (r *Route) First() (ItineraryPoint, bool) {
	if len(r.ItineraryPoints) == 0 {
		return ItineraryPoint{}, false
	}
	return r.ItineraryPoints[0], true
}

// Last returns the last itinerary point, or false for an empty route
func (r *Route) Last() (ItineraryPoint, bool) {
	if len(r.ItineraryPoints) == 0 {
		return ItineraryPoint{}, false
	}
	return r.ItineraryPoints[len(r.ItineraryPoints)-1], true
}

// IndexOf returns the position of the itinerary point with the given id
func (r *Route) IndexOf(objID int) (int, bool) {
	for i, p := range r.ItineraryPoints {
		if p.ObjID == objID {
			return i, true
		}
	}
	return -1, false
}

// IsFirstPoint reports whether objID identifies the first itinerary point
func (r *Route) IsFirstPoint(objID int) bool {
	first, ok := r.First()
	return ok && first.ObjID == objID
}

// IsLastPoint reports whether ll sits exactly on the last itinerary point.
// Coordinates are compared instead of ids because itinerary builders may
// duplicate the final vertex.
func (r *Route) IsLastPoint(ll geo.LatLng) bool {
	last, ok := r.Last()
	return ok && last.LatLng().Equal(ll)
}

// LatLngs returns the coordinates of all itinerary points
func (r *Route) LatLngs() []geo.LatLng {
	latLngs := make([]geo.LatLng, len(r.ItineraryPoints))
	for i, p := range r.ItineraryPoints {
		latLngs[i] = p.LatLng()
	}
	return latLngs
}

// NewRoute builds a route from raw points, assigning missing ids and
// computing every point distance and the total distance
func NewRoute(name string, points []ItineraryPoint) *Route {
	route := &Route{
		Name:            name,
		ItineraryPoints: make([]ItineraryPoint, len(points)),
	}
	copy(route.ItineraryPoints, points)

	for i := range route.ItineraryPoints {
		p := &route.ItineraryPoints[i]
		if p.ObjID == 0 {
			p.ObjID = i + 1
		}
		p.Distance = 0
		if i > 0 {
			prev := &route.ItineraryPoints[i-1]
			prev.Distance = geo.Distance(prev.LatLng(), p.LatLng())
			route.Distance += prev.Distance
		}
	}

	return route
}
