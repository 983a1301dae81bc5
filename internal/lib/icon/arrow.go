package icon

import (
	"math"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// Direction arrows and tooltips
const (
	ArrowRight       = "🢂"
	ArrowSlightRight = "🢅"
	ArrowContinue    = "🢁"
	ArrowSlightLeft  = "🢄"
	ArrowLeft        = "🢀"
	ArrowSharpLeft   = "🢇"
	ArrowSharpRight  = "🢆"
	ArrowStart       = "🚩"
	ArrowEnd         = "🏁"

	TooltipRight       = "Turn right"
	TooltipSlightRight = "Turn slight right"
	TooltipContinue    = "Continue"
	TooltipSlightLeft  = "Turn slight left"
	TooltipLeft        = "Turn left"
	TooltipSharpLeft   = "Turn sharp left"
	TooltipSharpRight  = "Turn sharp right"
	TooltipStart       = "Start"
	TooltipEnd         = "Stop"
)

// FindArrowAndTooltip sets the direction arrow and the tooltip from the
// position and direction computed by ComputePlacement, then locates the OSM
// node under the anchor and copies its cycle network reference
func FindArrowAndTooltip(state *PlacementState, cfg Config) {
	switch {
	case state.Position == AtStart:
		state.DirectionArrow, state.Tooltip = ArrowStart, TooltipStart
	case state.Position == AtEnd:
		state.DirectionArrow, state.Tooltip = ArrowEnd, TooltipEnd
	case state.Direction != nil:
		state.DirectionArrow, state.Tooltip = turn(*state.Direction, cfg.Directions)
	default:
		state.DirectionArrow, state.Tooltip = "", ""
	}

	state.IconNode = findIconNode(state.GeoData, state.Anchor, cfg.AngleDistance)
	if state.IconNode != nil {
		state.RcnRef = state.IconNode.Tags.Find("rcn_ref")
	}
}

func turn(direction float64, angles DirectionAngles) (string, string) {
	switch {
	case direction < angles.Right:
		return ArrowRight, TooltipRight
	case direction < angles.SlightRight:
		return ArrowSlightRight, TooltipSlightRight
	case direction < angles.Continue:
		return ArrowContinue, TooltipContinue
	case direction < angles.SlightLeft:
		return ArrowSlightLeft, TooltipSlightLeft
	case direction < angles.Left:
		return ArrowLeft, TooltipLeft
	case direction < angles.SharpLeft:
		return ArrowSharpLeft, TooltipSharpLeft
	case direction < angles.SharpRight:
		return ArrowSharpRight, TooltipSharpRight
	}
	return ArrowRight, TooltipRight
}

// findIconNode returns the street node closest to the anchor when it lies
// within maxDistance meters
func findIconNode(data *overpass.Response, anchor geo.LatLng, maxDistance float64) *overpass.Element {
	nodes := data.Nodes()

	var closest *overpass.Element
	minDistance := math.Inf(1)
	for _, way := range data.Ways() {
		for _, id := range way.Nodes {
			node, ok := nodes[id]
			if !ok {
				continue
			}
			distance := geo.Distance(anchor, node.LatLng())
			if distance < minDistance || (distance == minDistance && closest != nil && node.ID < closest.ID) {
				minDistance = distance
				closest = &node
			}
		}
	}

	if closest == nil || minDistance > maxDistance {
		return nil
	}
	return closest
}
