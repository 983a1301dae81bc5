package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/cache"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/config"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/icon"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/routing"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/logging"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/routeio"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	command := os.Args[1]
	switch command {
	case "distance":
		handleDistance()
	case "closest":
		handleClosest()
	case "sample":
		handleSample()
	case "encode":
		handleEncode()
	case "icon":
		handleIcon()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// routeFlags registers the flags selecting the route input
type routeFlags struct {
	gpx      *string
	polyline *string
	name     *string
}

func addRouteFlags(fs *flag.FlagSet) routeFlags {
	return routeFlags{
		gpx:      fs.String("gpx", "", "GPX file holding the route (track or route)"),
		polyline: fs.String("polyline", "", "Encoded polyline of the route"),
		name:     fs.String("name", "route", "Route name when reading a polyline"),
	}
}

func (f routeFlags) empty() bool {
	return *f.gpx == "" && *f.polyline == ""
}

func (f routeFlags) load() *routing.Route {
	if *f.gpx != "" {
		file, err := os.Open(*f.gpx)
		if err != nil {
			log.Fatalf("Error opening GPX file: %v", err)
		}
		defer file.Close()

		route, err := routeio.FromGPX(file)
		if err != nil {
			log.Fatalf("Error reading GPX file: %v", err)
		}
		return route
	}

	route, err := routeio.FromPolyline(*f.name, *f.polyline)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}
	return route
}

func handleDistance() {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  routeicon distance --lat1 50.6450 --lng1 5.5734 --lat2 50.5630 --lng2 5.5858")
		fmt.Println("  (Distance between Liège and Tilff)")
		os.Exit(1)
	}

	p1, err := geo.NewLatLng(*lat1, *lng1)
	if err != nil {
		log.Fatalf("Invalid first point: %v", err)
	}
	p2, err := geo.NewLatLng(*lat2, *lng2)
	if err != nil {
		log.Fatalf("Invalid second point: %v", err)
	}

	distance := geo.Distance(p1, p2)

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Lat, p1.Lng)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Lat, p2.Lng)
	fmt.Printf("  Distance: %.2f meters (%.2f km)\n", distance, distance/1000)
}

func handleClosest() {
	fs := flag.NewFlagSet("closest", flag.ExitOnError)
	input := addRouteFlags(fs)
	lat := fs.Float64("lat", 0, "Latitude of point")
	lng := fs.Float64("lng", 0, "Longitude of point")

	fs.Parse(os.Args[2:])

	if input.empty() {
		fmt.Println("Example usage:")
		fmt.Println("  routeicon closest --gpx ride.gpx --lat 50.6005 --lng 5.5010")
		os.Exit(1)
	}

	route := input.load()
	closest, ok := routing.ClosestPointOnRoute(route, geo.LatLng{Lat: *lat, Lng: *lng})
	if !ok {
		log.Fatal("Route has no points")
	}

	writeJSON(os.Stdout, closest)
}

func handleSample() {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	input := addRouteFlags(fs)
	at := fs.Float64("at", 0, "Distance from the start in meters")
	every := fs.Float64("every", 0, "Sample the whole route every N meters")

	fs.Parse(os.Args[2:])

	if input.empty() || (*at <= 0 && *every <= 0) {
		fmt.Println("Example usage:")
		fmt.Println("  routeicon sample --gpx ride.gpx --at 1500")
		fmt.Println("  routeicon sample --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --every 10000")
		os.Exit(1)
	}

	route := input.load()

	distances := []float64{*at}
	if *every > 0 {
		distances = distances[:0]
		for d := *every; d < route.Distance; d += *every {
			distances = append(distances, d)
		}
	}

	samples := make([]geo.LatLngElevOnRoute, 0, len(distances))
	for _, d := range distances {
		sample, ok := routing.SampleAt(route, d)
		if !ok {
			log.Printf("No sample at %.1f m (route length %.1f m)", d, route.Distance)
			continue
		}
		samples = append(samples, sample)
	}

	writeJSON(os.Stdout, samples)
}

func handleEncode() {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	input := addRouteFlags(fs)

	fs.Parse(os.Args[2:])

	if *input.gpx == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routeicon encode --gpx ride.gpx")
		os.Exit(1)
	}

	route := input.load()
	fmt.Printf("Route %q: %d points, %.2f km\n", route.Name, len(route.ItineraryPoints), route.Distance/1000)
	fmt.Println(routeio.EncodePolyline(route))
}

func handleIcon() {
	fs := flag.NewFlagSet("icon", flag.ExitOnError)
	input := addRouteFlags(fs)
	configPath := fs.String("config", "", "YAML configuration file")
	lat := fs.Float64("lat", 0, "Latitude of the icon")
	lng := fs.Float64("lng", 0, "Longitude of the icon")
	every := fs.Float64("every", 0, "Build an icon every N meters, plus the start and the end")
	format := fs.String("format", "json", "Output format: json, geojson or kml")
	out := fs.String("out", "", "Output file, stdout when empty")

	fs.Parse(os.Args[2:])

	if input.empty() || (*lat == 0 && *lng == 0 && *every <= 0) {
		fmt.Println("Example usage:")
		fmt.Println("  routeicon icon --gpx ride.gpx --lat 50.6010 --lng 5.5000")
		fmt.Println("  routeicon icon --gpx ride.gpx --every 5000 --format kml --out ride.kml")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	route := input.load()

	engine, closeFn, err := newEngine(ctx, *configPath)
	if err != nil {
		log.Fatalf("Error initializing icon pipeline: %v", err)
	}
	defer closeFn()

	pipeline, logger := engine.pipeline, engine.logger

	anchors := []geo.LatLng{{Lat: *lat, Lng: *lng}}
	if *every > 0 {
		anchors = iconAnchors(route, *every)
		if _, err := engine.warmer.Warm(ctx, route, anchors); err != nil {
			logger.Warnw("Geodata warming interrupted", "error", err)
		}
	}

	var results []*icon.Result
	for _, anchor := range anchors {
		result, err := pipeline.BuildIcon(ctx, route, anchor)
		if err != nil {
			if ctx.Err() != nil {
				log.Fatalf("Interrupted: %v", err)
			}
			logger.Errorw("Icon build failed", "lat", anchor.Lat, "lng", anchor.Lng, "error", err)
			continue
		}
		if len(results) > 0 && results[len(results)-1].LatLng.Equal(result.LatLng) {
			continue
		}
		results = append(results, result)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Error creating output file: %v", err)
		}
		defer file.Close()
		w = file
	}

	switch *format {
	case "json":
		writeJSON(w, results)
	case "geojson":
		writeJSON(w, routeio.RouteFeatureCollection(route, results...))
	case "kml":
		if err := routeio.WriteKML(w, route, results...); err != nil {
			log.Fatalf("Error writing KML: %v", err)
		}
	default:
		log.Fatalf("Unknown format: %s", *format)
	}
}

// iconEngine groups the icon pipeline and the services sharing its geodata cache
type iconEngine struct {
	pipeline *icon.Pipeline
	warmer   *services.GeodataWarmer
	logger   *zap.SugaredLogger
}

// newEngine wires config, logging, the Overpass client and the geodata
// caches into an icon pipeline
func newEngine(ctx context.Context, configPath string) (*iconEngine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	zapLogger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	logger := zapLogger.Sugar()
	closeFn := func() { _ = zapLogger.Sync() }

	client := overpass.NewClient(cfg.Overpass, logger)

	var store cache.Store
	if cfg.Cache.DatabaseURL != "" {
		db, err := cache.OpenPostgres(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlStore := cache.NewSQLStore(db, cfg.Cache.TTL)
		if err := sqlStore.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		sqlStore.StartPeriodicCleanup(ctx, time.Hour, logger)
		store = sqlStore

		syncLogger := closeFn
		closeFn = func() {
			db.Close()
			syncLogger()
		}
		logger.Infow("Geodata store enabled", "ttl", cfg.Cache.TTL)
	}

	geoCache := cache.NewGeoCache(client, cfg.Cache, store, logger)
	pipeline := icon.NewPipeline(cfg.IconConfig(), geoCache, logger)

	return &iconEngine{
		pipeline: pipeline,
		warmer:   services.NewGeodataWarmer(pipeline, geoCache, cfg.Warmer, logger),
		logger:   logger,
	}, closeFn, nil
}

// iconAnchors returns the start, a point every interval meters and the end
func iconAnchors(route *routing.Route, interval float64) []geo.LatLng {
	var anchors []geo.LatLng
	if first, ok := route.First(); ok {
		anchors = append(anchors, first.LatLng())
	}
	for d := interval; d < route.Distance; d += interval {
		if sample, ok := routing.SampleAt(route, d); ok {
			anchors = append(anchors, sample.LatLng)
		}
	}
	if last, ok := route.Last(); ok && len(route.ItineraryPoints) > 1 {
		anchors = append(anchors, last.LatLng())
	}
	return anchors
}

func writeJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Error encoding JSON: %v", err)
	}
}

func printUsage() {
	fmt.Println("Route icon engine")
	fmt.Println()
	fmt.Println("Usage: routeicon <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  distance   Great circle distance between two points")
	fmt.Println("  closest    Closest point on a route and its distance from the start")
	fmt.Println("  sample     Position and elevation at a distance along a route")
	fmt.Println("  encode     Encode a GPX route as a polyline")
	fmt.Println("  icon       Build route icons from OpenStreetMap data")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment variables prefixed with ROUTEICON__ override the configuration,")
	fmt.Println("e.g. ROUTEICON__OVERPASS__URL or ROUTEICON__CACHE__DATABASE_URL.")
}
