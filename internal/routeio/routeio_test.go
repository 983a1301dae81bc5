package routeio

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/icon"
)

const trackGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="routeio test" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><name>Ourthe</name></metadata>
  <trk>
    <name>Liège - Tilff</name>
    <trkseg>
      <trkpt lat="50.6000" lon="5.5000"><ele>60</ele></trkpt>
      <trkpt lat="50.6010" lon="5.5000"><ele>70</ele></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="50.6010" lon="5.5030"><ele>90</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

const routeGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="routeio test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte>
    <rtept lat="50.6000" lon="5.5000"/>
    <rtept lat="50.6010" lon="5.5000"/>
  </rte>
</gpx>`

func TestFromGPX_Track(t *testing.T) {
	route, err := FromGPX(strings.NewReader(trackGPX))
	require.NoError(t, err)

	assert.Equal(t, "Liège - Tilff", route.Name)
	require.Len(t, route.ItineraryPoints, 3, "Segments are joined")
	assert.Equal(t, 60.0, route.ItineraryPoints[0].Elevation)
	assert.Equal(t, 90.0, route.ItineraryPoints[2].Elevation)
	assert.Equal(t, 5.503, route.ItineraryPoints[2].Lng)
	assert.Greater(t, route.Distance, 300.0)
}

func TestFromGPX_Route(t *testing.T) {
	route, err := FromGPX(strings.NewReader(routeGPX))
	require.NoError(t, err)

	require.Len(t, route.ItineraryPoints, 2)
	assert.Equal(t, 0.0, route.ItineraryPoints[0].Elevation, "Missing elevation is zero")
	assert.InDelta(t, 111.2, route.Distance, 0.5)
}

func TestFromGPX_Errors(t *testing.T) {
	_, err := FromGPX(strings.NewReader(`<gpx version="1.1" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`))
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = FromGPX(strings.NewReader("not xml"))
	assert.Error(t, err)
}

func TestPolyline(t *testing.T) {
	route, err := FromPolyline("canonical", "_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)

	require.Len(t, route.ItineraryPoints, 3)
	assert.InDelta(t, 38.5, route.ItineraryPoints[0].Lat, 1e-9)
	assert.InDelta(t, -120.2, route.ItineraryPoints[0].Lng, 1e-9)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(route))

	_, err = FromPolyline("empty", "")
	assert.Error(t, err)
}

func testIcon() *icon.Result {
	return &icon.Result{
		Markup:   `<svg></svg>`,
		Tooltip:  "Turn right into C12",
		Address:  "Rue Haute ⮞ C12, Liège",
		LatLng:   geo.LatLng{Lat: 50.601, Lng: 5.5},
		Position: icon.OnRoute,
	}
}

func TestWriteKML(t *testing.T) {
	route, err := FromGPX(strings.NewReader(trackGPX))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, route, testIcon(), nil))

	out := buf.String()
	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "<Point>")
	assert.Contains(t, out, "Turn right into C12")
	assert.Contains(t, out, "5.5,50.6")
	assert.Equal(t, 2, strings.Count(out, "<Placemark>"))
}

func TestRouteFeatureCollection(t *testing.T) {
	route, err := FromGPX(strings.NewReader(trackGPX))
	require.NoError(t, err)

	fc := RouteFeatureCollection(route, testIcon())
	require.Len(t, fc.Features, 2)

	b, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded struct {
		Features []struct {
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))

	assert.Equal(t, "LineString", decoded.Features[0].Geometry.Type)
	assert.Equal(t, "route", decoded.Features[0].Properties["kind"])
	assert.Equal(t, "Point", decoded.Features[1].Geometry.Type)
	assert.Equal(t, "on-route", decoded.Features[1].Properties["position"])
	assert.JSONEq(t, "[5.5,50.601]", string(decoded.Features[1].Geometry.Coordinates))
}
