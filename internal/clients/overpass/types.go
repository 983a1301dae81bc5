package overpass

import (
	"strconv"

	"github.com/paulmach/osm"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// Element types returned by the Overpass API in [out:json] mode
const (
	TypeNode     = "node"
	TypeWay      = "way"
	TypeArea     = "area"
	TypeRelation = "relation"
)

// Response is the decoded body of an Overpass [out:json] query
type Response struct {
	Version   float64   `json:"version" msgpack:"v"`
	Generator string    `json:"generator,omitempty" msgpack:"g,omitempty"`
	Elements  []Element `json:"elements" msgpack:"e"`
}

// Element is a single node, way or area of an Overpass response.
// Areas carry no geometry, only tags.
type Element struct {
	Type  string       `json:"type" msgpack:"t"`
	ID    int64        `json:"id" msgpack:"id"`
	Lat   float64      `json:"lat,omitempty" msgpack:"lat,omitempty"`
	Lon   float64      `json:"lon,omitempty" msgpack:"lon,omitempty"`
	Nodes []osm.NodeID `json:"nodes,omitempty" msgpack:"n,omitempty"`
	Tags  osm.Tags     `json:"tags,omitempty" msgpack:"tags,omitempty"`
}

// LatLng returns the position of a node element
func (e Element) LatLng() geo.LatLng {
	return geo.LatLng{Lat: e.Lat, Lng: e.Lon}
}

// NodeID returns the element id as an OSM node id
func (e Element) NodeID() osm.NodeID {
	return osm.NodeID(e.ID)
}

// Name returns the name tag, falling back to the ref tag
func (e Element) Name() string {
	if name := e.Tags.Find("name"); name != "" {
		return name
	}
	return e.Tags.Find("ref")
}

// AdminLevel returns the admin_level tag of a boundary area, or 0 when
// missing or not a number
func (e Element) AdminLevel() int {
	level, err := strconv.Atoi(e.Tags.Find("admin_level"))
	if err != nil {
		return 0
	}
	return level
}

// Nodes returns every node element indexed by id
func (r *Response) Nodes() map[osm.NodeID]Element {
	nodes := make(map[osm.NodeID]Element)
	if r == nil {
		return nodes
	}
	for _, e := range r.Elements {
		if e.Type == TypeNode {
			nodes[e.NodeID()] = e
		}
	}
	return nodes
}

// Ways returns every way element carrying a highway tag, in response order
func (r *Response) Ways() []Element {
	var ways []Element
	if r == nil {
		return ways
	}
	for _, e := range r.Elements {
		if e.Type == TypeWay && e.Tags.HasTag("highway") {
			ways = append(ways, e)
		}
	}
	return ways
}

// AdminAreas returns the administrative boundary areas containing the query
// point
func (r *Response) AdminAreas() []Element {
	var areas []Element
	if r == nil {
		return areas
	}
	for _, e := range r.Elements {
		if e.Type == TypeArea && e.Tags.Find("boundary") == "administrative" {
			areas = append(areas, e)
		}
	}
	return areas
}

// Places returns the named place nodes (city, town, village, hamlet...)
func (r *Response) Places() []Element {
	var places []Element
	if r == nil {
		return places
	}
	for _, e := range r.Elements {
		if e.Type == TypeNode && e.Tags.Find("place") != "" && e.Tags.Find("name") != "" {
			places = append(places, e)
		}
	}
	return places
}
