// Package routeio imports routes from GPX files and encoded polylines and
// exports routes and icons as polylines, KML and GeoJSON.
package routeio

import (
	"errors"
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// ErrNoPoints is returned when an input holds no route point
var ErrNoPoints = errors.New("no route points found")

// FromGPX builds a route from the first track of a GPX document, or from its
// first route when it has no track. Track segments are joined.
func FromGPX(r io.Reader) (*routing.Route, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX: %w", err)
	}

	gpxFile, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	for _, track := range gpxFile.Tracks {
		var points []routing.ItineraryPoint
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				points = append(points, itineraryPoint(p))
			}
		}
		if len(points) > 0 {
			return routing.NewRoute(routeName(track.Name, gpxFile.Name), points), nil
		}
	}

	for _, rte := range gpxFile.Routes {
		points := make([]routing.ItineraryPoint, 0, len(rte.Points))
		for _, p := range rte.Points {
			points = append(points, itineraryPoint(p))
		}
		if len(points) > 0 {
			return routing.NewRoute(routeName(rte.Name, gpxFile.Name), points), nil
		}
	}

	return nil, ErrNoPoints
}

func itineraryPoint(p gpx.GPXPoint) routing.ItineraryPoint {
	var elevation float64
	if p.Elevation.NotNull() {
		elevation = p.Elevation.Value()
	}
	return routing.ItineraryPoint{Lat: p.Latitude, Lng: p.Longitude, Elevation: elevation}
}

func routeName(names ...string) string {
	for _, name := range names {
		if name != "" {
			return name
		}
	}
	return ""
}
