package icon

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

var projector = geo.NewProjector()

// ComputePlacement fills translation, rotation, direction and position of
// state for an icon drawn at anchor. state.Route and state.NearestObjID must
// be set by the caller.
//
// Icons are drawn with the incoming route heading up: Rotation turns the
// route towards the top of the icon and Direction is the outgoing bearing
// measured counterclockwise from the right of the rotated icon, so that 90
// means straight on.
func ComputePlacement(state *PlacementState, anchor geo.LatLng, cfg Config) {
	state.Anchor = anchor
	state.Position = OnRoute
	state.Direction = nil
	state.Rotation = 0

	center := r2.Point{X: cfg.SvgViewboxDim / 2, Y: cfg.SvgViewboxDim / 2}
	state.Translation = geo.SubtractPoints(center, projector.Project(anchor, cfg.SvgZoom))

	route := state.Route
	if route == nil {
		return
	}
	nearest, ok := route.IndexOf(state.NearestObjID)
	if !ok {
		return
	}

	state.RotationRef, state.DirectionRef = referencePoints(route, nearest, anchor, cfg.AngleDistance)

	iconPoint := center
	if !route.IsFirstPoint(state.NearestObjID) && state.RotationRef != nil {
		ref := pixelPoint(state, state.RotationRef.LatLng(), cfg.SvgZoom)
		rotation := pixelAngle(iconPoint, ref)
		if rotation < 0 {
			rotation += 360
		}
		rotation -= 270
		// pixel origin is the upper left corner
		if ref.X-iconPoint.X < 0 {
			rotation += 180
		}
		state.Rotation = normalizeDegrees(rotation)
	}

	last, _ := route.Last()
	if last.ObjID != state.NearestObjID && state.DirectionRef != nil {
		ref := pixelPoint(state, state.DirectionRef.LatLng(), cfg.SvgZoom)
		direction := pixelAngle(iconPoint, ref)
		if ref.X-iconPoint.X < 0 {
			direction += 180
		}
		direction = normalizeDegrees(direction - state.Rotation)
		state.Direction = &direction
	}

	if route.IsFirstPoint(state.NearestObjID) {
		direction := 0.0
		if state.Direction != nil {
			direction = *state.Direction
		}
		state.Rotation = normalizeDegrees(-direction - 90)
		state.Direction = nil
		state.Position = AtStart
	}

	if route.IsLastPoint(anchor) {
		state.Direction = nil
		state.Position = AtEnd
	}
}

// referencePoints walks backward and forward from the nearest point to the
// first points at least minDistance meters from the anchor, falling back to
// the route ends
func referencePoints(route *routing.Route, nearest int, anchor geo.LatLng, minDistance float64) (*routing.ItineraryPoint, *routing.ItineraryPoint) {
	points := route.ItineraryPoints
	if len(points) == 0 {
		return nil, nil
	}

	rotationRef := &points[0]
	for i := nearest - 1; i >= 0; i-- {
		if geo.Distance(anchor, points[i].LatLng()) >= minDistance {
			rotationRef = &points[i]
			break
		}
	}

	directionRef := &points[len(points)-1]
	for i := nearest + 1; i < len(points); i++ {
		if geo.Distance(anchor, points[i].LatLng()) >= minDistance {
			directionRef = &points[i]
			break
		}
	}

	return rotationRef, directionRef
}

// pixelPoint projects ll into the icon pixel space
func pixelPoint(state *PlacementState, ll geo.LatLng, zoom int) r2.Point {
	return geo.AddPoints(projector.Project(ll, zoom), state.Translation)
}

// pixelAngle is the angle in degrees, in [-90, 90], of the line from icon to
// ref with the y axis flipped to point up
func pixelAngle(icon, ref r2.Point) float64 {
	dx := ref.X - icon.X
	dy := icon.Y - ref.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	if dx == 0 {
		// avoid a signed zero
		dx = 0
	}
	return math.Atan(dy/dx) * 180 / math.Pi
}
