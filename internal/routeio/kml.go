package routeio

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/icon"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// WriteKML writes a KML document holding the route as a line string and
// every icon as a placemark
func WriteKML(w io.Writer, route *routing.Route, icons ...*icon.Result) error {
	coordinates := make([]kml.Coordinate, len(route.ItineraryPoints))
	for i, p := range route.ItineraryPoints {
		coordinates[i] = kml.Coordinate{Lon: p.Lng, Lat: p.Lat, Alt: p.Elevation}
	}

	elements := []kml.Element{
		kml.Name(route.Name),
		kml.Placemark(
			kml.Name(route.Name),
			kml.Description(fmt.Sprintf("%.0f m", route.Distance)),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coordinates...),
			),
		),
	}

	for _, result := range icons {
		if result == nil {
			continue
		}
		elements = append(elements, kml.Placemark(
			kml.Name(result.Tooltip),
			kml.Description(result.Address),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: result.LatLng.Lng, Lat: result.LatLng.Lat})),
		))
	}

	if err := kml.KML(kml.Document(elements...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}
