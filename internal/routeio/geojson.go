package routeio

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/icon"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// IconFeature converts an icon into a GeoJSON point feature
func IconFeature(result *icon.Result) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{result.LatLng.Lng, result.LatLng.Lat})
	f.Properties["kind"] = "icon"
	f.Properties["tooltip"] = result.Tooltip
	f.Properties["address"] = result.Address
	f.Properties["position"] = result.Position.String()
	f.Properties["markup"] = result.Markup
	return f
}

// RouteFeature converts a route into a GeoJSON line string feature
func RouteFeature(route *routing.Route) *geojson.Feature {
	line := make(orb.LineString, len(route.ItineraryPoints))
	for i, p := range route.ItineraryPoints {
		line[i] = orb.Point{p.Lng, p.Lat}
	}

	f := geojson.NewFeature(line)
	f.Properties["kind"] = "route"
	f.Properties["name"] = route.Name
	f.Properties["distance"] = route.Distance
	return f
}

// RouteFeatureCollection groups a route and its icons
func RouteFeatureCollection(route *routing.Route, icons ...*icon.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(RouteFeature(route))
	for _, result := range icons {
		if result != nil {
			fc.Append(IconFeature(result))
		}
	}
	return fc
}
