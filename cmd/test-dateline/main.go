package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dpup/dateline/internal/config"
	"github.com/dpup/dateline/internal/lib/geo"
	"github.com/dpup/dateline/internal/lib/render"
	"github.com/dpup/dateline/internal/lib/routing"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "interpolate":
		handleInterpolate()
	case "segment":
		handleSegment()
	case "route":
		handleRoute()
	case "presets":
		handlePresets()
	case "decode-polyline":
		handleDecodePolyline()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

type endpointFlags struct {
	startLng, startLat, endLng, endLat *float64
	points                             *int
}

func addEndpointFlags(fs *flag.FlagSet) endpointFlags {
	return endpointFlags{
		startLng: fs.Float64("start-lng", 0, "Longitude of start point"),
		startLat: fs.Float64("start-lat", 0, "Latitude of start point"),
		endLng:   fs.Float64("end-lng", 0, "Longitude of end point"),
		endLat:   fs.Float64("end-lat", 0, "Latitude of end point"),
		points:   fs.Int("points", geo.DefaultNumPoints, "Number of interpolation steps"),
	}
}

func (f endpointFlags) empty() bool {
	return *f.startLng == 0 && *f.startLat == 0 && *f.endLng == 0 && *f.endLat == 0
}

func (f endpointFlags) endpoints() routing.Endpoints {
	return routing.Endpoints{
		Start: geo.Point{Longitude: *f.startLng, Latitude: *f.startLat},
		End:   geo.Point{Longitude: *f.endLng, Latitude: *f.endLat},
	}
}

func handleInterpolate() {
	fs := flag.NewFlagSet("interpolate", flag.ExitOnError)
	ef := addEndpointFlags(fs)
	precision := fs.Int("precision", geo.DisplayPrecision, "Decimal places in the listing")

	fs.Parse(os.Args[2:])

	if ef.empty() {
		fmt.Println("Example usage:")
		fmt.Println("  test-dateline interpolate --start-lng 139.6917 --start-lat 35.6895 --end-lng -118.2437 --end-lat 34.0522")
		fmt.Println("  (Tokyo to Los Angeles)")
		os.Exit(1)
	}

	e := ef.endpoints()
	path, err := geo.Interpolate(e.Start, e.End, *ef.points)
	if err != nil {
		log.Fatalf("Error interpolating: %v", err)
	}

	fmt.Printf("Interpolated %d points:\n", len(path))
	for i, p := range geo.RoundPath(path, *precision) {
		marker := ""
		if geo.NearDateline(p) {
			marker = " ← near dateline"
		}
		fmt.Printf("  %3d: [%.*f, %.*f]%s\n", i, *precision, p.Longitude, *precision, p.Latitude, marker)
	}
	fmt.Printf("Crosses dateline: %v (%d crossings)\n", geo.CrossesDateline(path), geo.CountCrossings(path))
}

func handleSegment() {
	fs := flag.NewFlagSet("segment", flag.ExitOnError)
	coordsStr := fs.String("coords", "", "Path as semicolon-separated lng,lat pairs")

	fs.Parse(os.Args[2:])

	if *coordsStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-dateline segment --coords '170,10;-170,12;-160,14'")
		os.Exit(1)
	}

	path, err := parsePath(*coordsStr)
	if err != nil {
		log.Fatalf("Error parsing coordinates: %v", err)
	}

	segments, err := geo.SplitAtDateline(path)
	if err != nil {
		log.Fatalf("Error segmenting path: %v", err)
	}

	fmt.Printf("Path of %d points split into %d segment(s):\n", len(path), len(segments))
	for i, segment := range segments {
		fmt.Printf("  Segment %d (%d points):\n", i+1, len(segment))
		for _, p := range segment {
			fmt.Printf("    [%.6f, %.6f]\n", p.Longitude, p.Latitude)
		}
		fmt.Printf("    polyline: %s\n", geo.EncodeSegment(segment))
	}
}

func handleRoute() {
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	ef := addEndpointFlags(fs)
	preset := fs.String("preset", "", "Preset route ID (overrides coordinates)")
	configPath := fs.String("config", "", "Optional YAML config with presets")
	format := fs.String("format", "summary", "Output format: summary, geojson, kml")

	fs.Parse(os.Args[2:])

	cfg := loadConfig(*configPath)

	name := "Custom Route"
	endpoints := ef.endpoints()
	switch {
	case *preset != "":
		p, ok := cfg.Routes.FindPreset(*preset)
		if !ok {
			log.Fatalf("Unknown preset: %s", *preset)
		}
		name = p.Name
		endpoints = p.Endpoints()
	case ef.empty():
		fmt.Println("Example usage:")
		fmt.Println("  test-dateline route --preset tokyo-la")
		fmt.Println("  test-dateline route --start-lng -74.006 --start-lat 40.7128 --end-lng -0.1276 --end-lat 51.5074 --format geojson")
		os.Exit(1)
	}

	route, err := routing.Compute(endpoints, routeNumPoints(fs, *ef.points, cfg))
	if err != nil {
		log.Fatalf("Error computing route: %v", err)
	}

	switch *format {
	case "geojson":
		data, err := render.GeoJSON(route, name)
		if err != nil {
			log.Fatalf("Error rendering GeoJSON: %v", err)
		}
		fmt.Println(string(data))
	case "kml":
		data, err := render.KML(route, name)
		if err != nil {
			log.Fatalf("Error rendering KML: %v", err)
		}
		fmt.Println(string(data))
	case "summary":
		printSummary(name, route, cfg.Routes.DisplayPrecision)
	default:
		log.Fatalf("Unknown format: %s", *format)
	}
}

func printSummary(name string, route routing.Route, precision int) {
	summary := routing.Summarize(route, precision)

	fmt.Printf("Route: %s\n", name)
	fmt.Printf("  Start: [%.4f, %.4f]\n", route.Start.Longitude, route.Start.Latitude)
	fmt.Printf("  End:   [%.4f, %.4f]\n", route.End.Longitude, route.End.Latitude)
	fmt.Printf("  %d points, %d segment(s), %s\n", summary.PointCount, len(route.Segments), summary.Label)
	fmt.Printf("  Length: %.2f km (%.2f miles)\n", route.LengthMeters/1000, route.LengthMeters*0.000621371)
	for i, p := range summary.Preview {
		marker := ""
		if p.NearDateline {
			marker = " ← near dateline"
		}
		fmt.Printf("  %d: [%.*f, %.*f]%s\n", i, precision, p.Longitude, precision, p.Latitude, marker)
	}
	if summary.Remaining > 0 {
		fmt.Printf("  ... %d more points\n", summary.Remaining)
	}
}

func handlePresets() {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	configPath := fs.String("config", "", "Optional YAML config with presets")

	fs.Parse(os.Args[2:])

	cfg := loadConfig(*configPath)

	fmt.Printf("%d preset route(s):\n", len(cfg.Routes.Presets))
	for _, p := range cfg.Routes.Presets {
		def := ""
		if p.ID == cfg.Routes.DefaultPreset {
			def = " (default)"
		}
		fmt.Printf("  %-12s %s%s\n", p.ID, p.Name, def)
		fmt.Printf("  %-12s [%.4f, %.4f] → [%.4f, %.4f]\n", "",
			p.Start.Longitude, p.Start.Latitude, p.End.Longitude, p.End.Latitude)
	}
}

func handleDecodePolyline() {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string")

	fs.Parse(os.Args[2:])

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-dateline decode-polyline --polyline '_p~iF~ps|U_ulLnnqC_mqNvxq`@'")
		os.Exit(1)
	}

	points, err := geo.DecodePolyline(*polylineStr)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}

	fmt.Printf("Decoded %d points:\n", len(points))
	for i, p := range points {
		fmt.Printf("  %d: [%.6f, %.6f]\n", i, p.Longitude, p.Latitude)
	}
	fmt.Printf("Crosses dateline: %v\n", geo.CrossesDateline(points))
}

// routeNumPoints returns the --points flag when it was given and the
// configured interval count otherwise
func routeNumPoints(fs *flag.FlagSet, points int, cfg *config.Config) int {
	passed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "points" {
			passed = true
		}
	})
	if passed {
		return points
	}
	return cfg.Routes.NumPoints
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

// parsePath parses "lng,lat;lng,lat;..." into a path
func parsePath(s string) (geo.Path, error) {
	pairs := strings.Split(s, ";")
	path := make(geo.Path, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid coordinate pair %q", pair)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
		}
		path = append(path, geo.Point{Longitude: lng, Latitude: lat})
	}
	return path, nil
}

func printUsage() {
	fmt.Println("Dateline Route Testing Tool")
	fmt.Println()
	fmt.Println("Usage: test-dateline <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  interpolate      Interpolate a curved path between two points")
	fmt.Println("  segment          Split a path at dateline crossings")
	fmt.Println("  route            Compute a full route (summary, geojson or kml);")
	fmt.Println("                   --points defaults to the config's num_points")
	fmt.Println("  presets          List preset routes")
	fmt.Println("  decode-polyline  Decode a polyline string to coordinates")
	fmt.Println("  help             Show this help message")
	fmt.Println()
	fmt.Println("Use 'test-dateline <command>' without options to see examples.")
}
