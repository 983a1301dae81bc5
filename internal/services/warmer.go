package services

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/icon"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
)

// QueryBuilder returns the geodata queries of an icon anchored at ll and the
// route size above which icons snap through a VertexIndex
type QueryBuilder interface {
	Queries(ll geo.LatLng) []string
	IndexThreshold() int
}

// Config holds geodata warming settings
type Config struct {
	Concurrency int           `koanf:"concurrency"` // parallel Overpass loads
	Timeout     time.Duration `koanf:"timeout"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Concurrency: 2,
		Timeout:     2 * time.Minute,
	}
}

// GeodataWarmer loads the geodata of many icons ahead of their builds so
// the serialized icon pipeline only reads from the cache
type GeodataWarmer struct {
	queries QueryBuilder
	loader  icon.GeoDataLoader
	cfg     Config
	logger  *zap.SugaredLogger
}

// NewGeodataWarmer creates a warmer. loader is expected to be a cache.
func NewGeodataWarmer(queries QueryBuilder, loader icon.GeoDataLoader, cfg Config, logger *zap.SugaredLogger) *GeodataWarmer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &GeodataWarmer{
		queries: queries,
		loader:  loader,
		cfg:     cfg,
		logger:  logger,
	}
}

// Warm snaps every anchor to its nearest route vertex and loads the geodata
// of each distinct vertex. Load failures are logged and skipped; the icon
// build reports them again. It returns the number of vertices loaded.
func (w *GeodataWarmer) Warm(ctx context.Context, route *routing.Route, anchors []geo.LatLng) (int, error) {
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	vertices := snapAnchors(route, anchors, w.queries.IndexThreshold())
	w.logger.Infow("Warming geodata", "route", route.Name, "anchors", len(anchors), "vertices", len(vertices))

	var warmed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)

	for _, ll := range vertices {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if _, err := w.loader.Load(gctx, w.queries.Queries(ll), ll); err != nil {
				w.logger.Warnw("Geodata warming failed", "lat", ll.Lat, "lng", ll.Lng, "error", err)
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}

	err := g.Wait()
	w.logger.Infow("Geodata warming complete", "route", route.Name, "warmed", warmed.Load())
	return int(warmed.Load()), err
}

// snapAnchors returns the distinct route vertices nearest to anchors, in
// anchor order, searching the way the icon pipeline does
func snapAnchors(route *routing.Route, anchors []geo.LatLng, indexThreshold int) []geo.LatLng {
	var index *routing.VertexIndex
	if indexThreshold > 0 && len(route.ItineraryPoints) > indexThreshold {
		index = routing.NewVertexIndex(route)
	}

	seen := make(map[int]bool, len(anchors))
	vertices := make([]geo.LatLng, 0, len(anchors))
	for _, anchor := range anchors {
		var i int
		var ok bool
		if index != nil {
			i, ok = index.Nearest(anchor)
		} else {
			i, ok = routing.NearestPoint(route, anchor)
		}
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		vertices = append(vertices, route.ItineraryPoints[i].LatLng())
	}
	return vertices
}
