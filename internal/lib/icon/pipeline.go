package icon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

var (
	// ErrBusy is returned when BuildIcon is called while another build of the
	// same pipeline is in flight
	ErrBusy = errors.New("icon build already running")

	// ErrBuildFailed wraps geodata failures
	ErrBuildFailed = errors.New("could not build icon")

	// ErrEmptyRoute is returned for routes without itinerary points
	ErrEmptyRoute = errors.New("route has no itinerary points")
)

// GeoDataLoader runs geodata queries around a point
type GeoDataLoader interface {
	Load(ctx context.Context, queries []string, at geo.LatLng) (*overpass.Response, error)
}

// Stage is one step of an icon build, run in order on the build state
type Stage func(state *PlacementState, cfg Config)

// Pipeline builds route icons from live street data. A pipeline runs one
// build at a time; callers needing concurrent builds use several pipelines.
type Pipeline struct {
	cfg    Config
	loader GeoDataLoader
	logger *zap.SugaredLogger
	guard  *semaphore.Weighted
	stages []Stage

	// nearest vertex index of the last large route seen, guarded by guard
	indexRoute *routing.Route
	index      *routing.VertexIndex
}

// NewPipeline creates a pipeline loading geodata with loader
func NewPipeline(cfg Config, loader GeoDataLoader, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{
		cfg:    cfg,
		loader: loader,
		logger: logger,
		guard:  semaphore.NewWeighted(1),
		stages: []Stage{
			func(state *PlacementState, cfg Config) { ComputePlacement(state, state.Anchor, cfg) },
			FindArrowAndTooltip,
			FindStreets,
			BuildSvg,
		},
	}
}

// BuildIcon builds the icon of route at the itinerary point nearest to
// anchor. It returns ErrBusy without waiting when a build is already running.
// Geodata failures are returned wrapped in ErrBuildFailed.
func (p *Pipeline) BuildIcon(ctx context.Context, route *routing.Route, anchor geo.LatLng) (*Result, error) {
	if !p.guard.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer p.guard.Release(1)

	if route == nil || len(route.ItineraryPoints) == 0 {
		return nil, ErrEmptyRoute
	}

	start := time.Now()

	nearest := route.ItineraryPoints[p.nearestPoint(route, anchor)]
	// icons are always anchored on a route vertex
	state := NewPlacementState(route, nearest.ObjID, nearest.LatLng())

	response, err := p.loader.Load(ctx, p.Queries(state.Anchor), state.Anchor)
	if err != nil {
		p.logger.Errorw("Failed to load icon geodata", "route", route.Name, "objId", nearest.ObjID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	state.GeoData = response

	for _, stage := range p.stages {
		stage(state, p.cfg)
	}

	p.logger.Infow("Icon built",
		"route", route.Name,
		"objId", nearest.ObjID,
		"position", state.Position.String(),
		"address", state.Address,
		"duration", time.Since(start))

	return state.Result(), nil
}

// Queries returns the Overpass queries for an icon at ll: the streets around
// the icon, the administrative areas containing it and the named places
// around it
func (p *Pipeline) Queries(ll geo.LatLng) []string {
	at := formatCoordinate(ll.Lat) + "," + formatCoordinate(ll.Lng)
	streetRadius := strconv.FormatFloat(p.cfg.SvgViewboxDim*p.cfg.SearchAroundFactor, 'f', 0, 64)
	placeRadius := strconv.FormatFloat(p.cfg.Places.Max(), 'f', 0, 64)

	return []string{
		"way[highway](around:" + streetRadius + "," + at + ")->.a;(.a >;.a;)->.a;.a out;",
		"is_in(" + at + ")->.e;area.e[admin_level][boundary=\"administrative\"];out;",
		"node(around:" + placeRadius + "," + at + ")[place];out;",
	}
}

// IndexThreshold returns the route size above which nearest vertex searches
// go through a VertexIndex, 0 when disabled
func (p *Pipeline) IndexThreshold() int {
	return p.cfg.IndexThreshold
}

// nearestPoint returns the index of the itinerary point closest to ll,
// scanning the route or, above the index threshold, querying an R-tree
func (p *Pipeline) nearestPoint(route *routing.Route, ll geo.LatLng) int {
	if p.cfg.IndexThreshold > 0 && len(route.ItineraryPoints) > p.cfg.IndexThreshold {
		if p.indexRoute != route {
			p.index = routing.NewVertexIndex(route)
			p.indexRoute = route
		}
		if i, ok := p.index.Nearest(ll); ok {
			return i
		}
	}

	i, _ := routing.NearestPoint(route, ll)
	return i
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
