package geo

// LatLng represents a geographic coordinate in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLngDistance is a coordinate together with the distance travelled
// along a route to reach it
type LatLngDistance struct {
	LatLng
	Distance float64 `json:"distance"`
}

// LatLngElevOnRoute extends LatLngDistance with the elevation at the point
// and the ascent of the route segment containing it
type LatLngElevOnRoute struct {
	LatLngDistance
	Elevation float64 `json:"elev"`
	Ascent    float64 `json:"ascent"` // percent, local to the bracketing segment
}

// NewLatLngDistance builds a LatLngDistance from raw values
func NewLatLngDistance(lat, lng, distance float64) LatLngDistance {
	return LatLngDistance{LatLng: LatLng{Lat: lat, Lng: lng}, Distance: distance}
}

// Equal reports exact coordinate equality
func (ll LatLng) Equal(other LatLng) bool {
	return ll.Lat == other.Lat && ll.Lng == other.Lng
}
