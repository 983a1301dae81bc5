package icon

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
)

// CSS classes of the icon markup
const (
	ClassIcon      = "routeicon"
	ClassRoute     = "routeicon-route"
	ClassHighway   = "routeicon-highway"
	ClassRcnRef    = "routeicon-rcnref"
	ClassDirection = "routeicon-direction"
)

// BuildSvg assembles the icon markup: the street ways and the route around
// the anchor, rotated so the route comes from the bottom, with the cycle
// network reference or the direction arrow on top
func BuildSvg(state *PlacementState, cfg Config) {
	dim := cfg.SvgViewboxDim
	half := dim / 2
	box := clipBox(cfg)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" class="%s">`,
		formatPixel(dim/4), formatPixel(dim/4), formatPixel(half), formatPixel(half), ClassIcon)
	fmt.Fprintf(&b, `<g transform="rotate(%s %s %s)">`,
		formatPixel(state.Rotation), formatPixel(half), formatPixel(half))

	nodes := state.GeoData.Nodes()
	for _, way := range state.GeoData.Ways() {
		points := make([]r2.Point, 0, len(way.Nodes))
		for _, id := range way.Nodes {
			if node, ok := nodes[id]; ok {
				points = append(points, pixelPoint(state, node.LatLng(), cfg.SvgZoom))
			}
		}
		class := ClassHighway + " " + ClassHighway + "-" + way.Tags.Find("highway")
		writePolylines(&b, clipRuns(points, box), class)
	}

	if state.Route != nil {
		points := make([]r2.Point, 0, len(state.Route.ItineraryPoints))
		for _, p := range state.Route.ItineraryPoints {
			points = append(points, pixelPoint(state, p.LatLng(), cfg.SvgZoom))
		}
		writePolylines(&b, clipRuns(points, box), ClassRoute)
	}

	b.WriteString(`</g>`)

	switch {
	case state.RcnRef != "":
		writeText(&b, half, half, ClassRcnRef, state.RcnRef)
	case state.DirectionArrow != "":
		writeText(&b, half, half, ClassDirection, state.DirectionArrow)
	}

	b.WriteString(`</svg>`)
	state.Markup = b.String()
}

// clipBox is the icon area with a margin of one icon on every side
func clipBox(cfg Config) r2.Rect {
	dim := cfg.SvgViewboxDim
	return r2.RectFromPoints(r2.Point{X: -dim, Y: -dim}, r2.Point{X: 2 * dim, Y: 2 * dim})
}

// clipRuns splits a pixel polyline into the runs having at least one end of
// every segment inside box
func clipRuns(points []r2.Point, box r2.Rect) [][]r2.Point {
	var runs [][]r2.Point
	var run []r2.Point

	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if !box.ContainsPoint(a) && !box.ContainsPoint(b) {
			if len(run) > 1 {
				runs = append(runs, run)
			}
			run = nil
			continue
		}
		if len(run) == 0 {
			run = append(run, a)
		}
		run = append(run, b)
	}
	if len(run) > 1 {
		runs = append(runs, run)
	}
	return runs
}

func writePolylines(b *strings.Builder, runs [][]r2.Point, class string) {
	for _, run := range runs {
		b.WriteString(`<polyline points="`)
		for i, p := range run {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatPixel(p.X))
			b.WriteByte(',')
			b.WriteString(formatPixel(p.Y))
		}
		fmt.Fprintf(b, `" class="%s"/>`, html.EscapeString(class))
	}
}

func writeText(b *strings.Builder, x, y float64, class, text string) {
	fmt.Fprintf(b, `<text x="%s" y="%s" class="%s">%s</text>`,
		formatPixel(x), formatPixel(y), class, html.EscapeString(text))
}

// formatPixel keeps two decimals, enough below one pixel
func formatPixel(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
