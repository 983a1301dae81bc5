package icon

import (
	"math"
	"strings"

	"github.com/paulmach/osm"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// StreetSeparator joins the incoming and outgoing street names of an address
const StreetSeparator = " ⮞ "

// maxCityAdminLevel is the most local admin_level naming a municipality
const maxCityAdminLevel = 8

// FindStreets builds the address of the icon from the streets meeting at the
// icon node and the municipality around it, and completes the tooltip with
// the street taken
func FindStreets(state *PlacementState, cfg Config) {
	incoming, outgoing := findIncomingOutgoing(state)

	var names []string
	if incoming != "" {
		names = append(names, incoming)
	}
	if outgoing != "" && outgoing != incoming {
		names = append(names, outgoing)
	}
	address := strings.Join(names, StreetSeparator)

	if city := findCity(state.GeoData, state.Anchor, cfg.Places); city != "" {
		if address != "" {
			address += ", "
		}
		address += city
	}

	if state.RcnRef != "" {
		if address != "" {
			address = " - " + address
		}
		address = "Node " + state.RcnRef + address
	}
	state.Address = address

	if state.Tooltip == "" {
		return
	}
	switch state.Position {
	case AtStart:
		if outgoing != "" {
			state.Tooltip += " on " + outgoing
		}
	case AtEnd:
		if incoming != "" {
			state.Tooltip += " on " + incoming
		}
	default:
		if outgoing != "" && outgoing != incoming {
			state.Tooltip += " into " + outgoing
		}
	}
}

// findIncomingOutgoing returns the names of the streets through the icon node
// leading towards the rotation and the direction reference points
func findIncomingOutgoing(state *PlacementState) (string, string) {
	if state.IconNode == nil {
		return "", ""
	}

	nodes := state.GeoData.Nodes()
	iconNodeID := state.IconNode.NodeID()

	var incoming, outgoing string
	if state.Position != AtStart && state.RotationRef != nil {
		incoming = closestStreet(state.GeoData.Ways(), nodes, iconNodeID, state.RotationRef)
	}
	if state.Position != AtEnd && state.DirectionRef != nil {
		outgoing = closestStreet(state.GeoData.Ways(), nodes, iconNodeID, state.DirectionRef)
	}
	return incoming, outgoing
}

// closestStreet returns the name of the way through node whose next node is
// closest to ref
func closestStreet(ways []overpass.Element, nodes map[osm.NodeID]overpass.Element, node osm.NodeID, ref *routing.ItineraryPoint) string {
	name := ""
	minDistance := math.Inf(1)

	for _, way := range ways {
		for i, id := range way.Nodes {
			if id != node {
				continue
			}
			for _, j := range []int{i - 1, i + 1} {
				if j < 0 || j >= len(way.Nodes) {
					continue
				}
				neighbour, ok := nodes[way.Nodes[j]]
				if !ok {
					continue
				}
				distance := geo.Distance(ref.LatLng(), neighbour.LatLng())
				if distance < minDistance {
					minDistance = distance
					name = way.Name()
				}
			}
		}
	}

	return name
}

// findCity names the most local administrative boundary containing the
// anchor, or else the closest place node within its place radius
func findCity(data *overpass.Response, anchor geo.LatLng, distances PlaceDistances) string {
	city := ""
	level := 0
	for _, area := range data.AdminAreas() {
		l := area.AdminLevel()
		if l > level && l <= maxCityAdminLevel && area.Tags.Find("name") != "" {
			level = l
			city = area.Tags.Find("name")
		}
	}
	if city != "" {
		return city
	}

	minDistance := math.Inf(1)
	for _, place := range data.Places() {
		radius, ok := distances.For(place.Tags.Find("place"))
		if !ok {
			continue
		}
		distance := geo.Distance(anchor, place.LatLng())
		if distance <= radius && distance < minDistance {
			minDistance = distance
			city = place.Tags.Find("name")
		}
	}
	return city
}
