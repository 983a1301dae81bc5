package icon

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// Position classifies where an icon sits on its route
type Position int

const (
	OnRoute Position = iota
	AtStart
	AtEnd
)

func (p Position) String() string {
	switch p {
	case AtStart:
		return "at-start"
	case AtEnd:
		return "at-end"
	default:
		return "on-route"
	}
}

// MarshalText renders the position with its string form
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PlacementState is the scratch record filled by the icon stages. A fresh
// state is created for every build and owned by that build only.
type PlacementState struct {
	Route        *routing.Route
	NearestObjID int
	Anchor       geo.LatLng

	Position       Position
	Direction      *float64 // outgoing bearing relative to Rotation, nil when there is none
	DirectionArrow string
	Translation    r2.Point // pixel offset placing Anchor on the icon centre
	Rotation       float64  // degrees

	// reference points used for the bearings, nil when the route has none
	RotationRef  *routing.ItineraryPoint
	DirectionRef *routing.ItineraryPoint

	GeoData  *overpass.Response
	IconNode *overpass.Element // OSM node under the anchor, when one is close enough
	RcnRef   string

	Tooltip string
	Address string
	Markup  string
}

// NewPlacementState returns a state with defaults for route and anchor
func NewPlacementState(route *routing.Route, nearestObjID int, anchor geo.LatLng) *PlacementState {
	return &PlacementState{
		Route:        route,
		NearestObjID: nearestObjID,
		Anchor:       anchor,
		Position:     OnRoute,
	}
}

// Result is the immutable outcome of an icon build
type Result struct {
	Markup   string     `json:"markup"`
	Tooltip  string     `json:"tooltip"`
	Address  string     `json:"address"`
	LatLng   geo.LatLng `json:"latLng"`
	Position Position   `json:"position"`
}

// Result freezes the state into a Result
func (s *PlacementState) Result() *Result {
	return &Result{
		Markup:   s.Markup,
		Tooltip:  s.Tooltip,
		Address:  s.Address,
		LatLng:   s.Anchor,
		Position: s.Position,
	}
}

// normalizeDegrees maps an angle to [0, 360)
func normalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	// -tiny + 360 rounds to 360
	if angle >= 360 {
		angle = 0
	}
	return angle
}
