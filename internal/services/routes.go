package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dpup/dateline/internal/cache"
	"github.com/dpup/dateline/internal/config"
	"github.com/dpup/dateline/internal/lib/geo"
	"github.com/dpup/dateline/internal/lib/render"
	"github.com/dpup/dateline/internal/lib/routing"
)

// maxNumPoints bounds the interval count accepted from clients
const maxNumPoints = 10000

// RouteService computes dateline-safe routes for HTTP and gRPC clients and
// owns the interactively edited route
type RouteService struct {
	cache  *cache.Cache
	config *config.RoutesConfig
	editor *routing.Editor
}

// RouteResponse is the JSON representation of a computed route
type RouteResponse struct {
	Name            string          `json:"name,omitempty"`
	Route           routing.Route   `json:"route"`
	Summary         routing.Summary `json:"summary"`
	EncodedSegments []string        `json:"encoded_segments"`
}

// RouteRequest is the body accepted when computing or editing a route
type RouteRequest struct {
	Preset    string     `json:"preset,omitempty"`
	Start     *geo.Point `json:"start,omitempty"`
	End       *geo.Point `json:"end,omitempty"`
	NumPoints int        `json:"num_points,omitempty"`
	Preview   bool       `json:"preview,omitempty"`
}

// badRequestError marks errors caused by malformed client input
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// NewRouteService creates a new RouteService with the editor positioned on
// the default preset
func NewRouteService(cache *cache.Cache, config *config.RoutesConfig) (*RouteService, error) {
	preset, ok := config.FindPreset(config.DefaultPreset)
	if !ok {
		if len(config.Presets) == 0 {
			return nil, errors.New("no preset route configured for the route editor")
		}
		preset = config.Presets[0]
	}

	editor, err := routing.NewEditor(preset.Endpoints(), config.NumPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create route editor for preset %s: %w", preset.ID, err)
	}

	return &RouteService{
		cache:  cache,
		config: config,
		editor: editor,
	}, nil
}

// Compute returns the route for the endpoints, using the cache when possible
func (s *RouteService) Compute(ctx context.Context, endpoints routing.Endpoints, numPoints int) (routing.Route, error) {
	route, found, err := s.cache.GetRoute(endpoints, numPoints)
	if err != nil {
		log.Printf("Cache error: %v", err)
	}
	if found {
		return route, nil
	}

	route, err = routing.Compute(endpoints, numPoints)
	if err != nil {
		return routing.Route{}, err
	}

	if err := s.cache.SetRoute(route, s.config.CacheTTL); err != nil {
		log.Printf("Failed to cache route: %v", err)
	}
	return route, nil
}

// Resolve turns a request into an endpoint pair, name and interval count
func (s *RouteService) Resolve(req RouteRequest) (routing.Endpoints, string, int, error) {
	numPoints := req.NumPoints
	if numPoints == 0 {
		numPoints = s.config.NumPoints
	}
	if numPoints < 1 || numPoints > maxNumPoints {
		return routing.Endpoints{}, "", 0, badRequest("num_points must be between 1 and %d", maxNumPoints)
	}

	if req.Preset != "" {
		preset, ok := s.config.FindPreset(req.Preset)
		if !ok {
			return routing.Endpoints{}, "", 0, badRequest("unknown preset: %s", req.Preset)
		}
		return preset.Endpoints(), preset.Name, numPoints, nil
	}

	if req.Start == nil || req.End == nil {
		return routing.Endpoints{}, "", 0, badRequest("start and end are required unless a preset is given")
	}
	return routing.Endpoints{Start: *req.Start, End: *req.End}, "", numPoints, nil
}

func (s *RouteService) response(route routing.Route, name string) RouteResponse {
	return RouteResponse{
		Name:            name,
		Route:           route,
		Summary:         routing.Summarize(route, s.config.DisplayPrecision),
		EncodedSegments: geo.EncodeSegments(route.Segments),
	}
}

// GetRoute serves GET /api/v1/route
//
//	?start=lon,lat&end=lon,lat | ?preset=id
//	&points=N&format=json|geojson|kml|polyline
func (s *RouteService) GetRoute(ctx context.Context, r *http.Request, _ runtime.Marshaler) (proto.Message, error) {
	req, err := routeRequestFromQuery(r)
	if err != nil {
		return nil, err
	}

	endpoints, name, numPoints, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	route, err := s.Compute(ctx, endpoints, numPoints)
	if err != nil {
		log.Printf("Failed to compute route: %v", err)
		return nil, err
	}

	if name == "" {
		name = "route"
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		return toStruct(s.response(route, name))
	case "geojson":
		data, err := render.GeoJSON(route, name)
		if err != nil {
			return nil, err
		}
		return &httpbody.HttpBody{ContentType: "application/geo+json", Data: data}, nil
	case "kml":
		data, err := render.KML(route, name)
		if err != nil {
			return nil, err
		}
		return &httpbody.HttpBody{ContentType: "application/vnd.google-earth.kml+xml", Data: data}, nil
	case "polyline":
		return toStruct(map[string][]string{"segments": geo.EncodeSegments(route.Segments)})
	default:
		return nil, badRequest("unknown format: %s", format)
	}
}

// ListPresets serves GET /api/v1/presets
func (s *RouteService) ListPresets(_ context.Context, _ *http.Request, _ runtime.Marshaler) (proto.Message, error) {
	return toStruct(map[string]any{
		"default": s.config.DefaultPreset,
		"presets": s.config.Presets,
	})
}

// GetCurrentRoute serves GET /api/v1/route/current with the committed route
func (s *RouteService) GetCurrentRoute(_ context.Context, _ *http.Request, _ runtime.Marshaler) (proto.Message, error) {
	return toStruct(s.response(s.editor.Current(), "current"))
}

// UpdateCurrentRoute serves POST /api/v1/route/current, previewing or
// committing new endpoints for the edited route
func (s *RouteService) UpdateCurrentRoute(_ context.Context, r *http.Request, inbound runtime.Marshaler) (proto.Message, error) {
	body := new(structpb.Struct)
	if err := inbound.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
		return nil, badRequest("invalid request body: %v", err)
	}

	var req RouteRequest
	if err := convertJSON(body.AsMap(), &req); err != nil {
		return nil, badRequest("invalid request body: %v", err)
	}

	// The editor recomputes with its own interval count
	req.NumPoints = s.editor.NumPoints()
	endpoints, name, _, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	var route routing.Route
	if req.Preview {
		route, err = s.editor.Preview(endpoints)
	} else {
		log.Printf("Committing route %+v", endpoints)
		route, err = s.editor.Commit(endpoints)
	}
	if err != nil {
		// Malformed drag updates are rejected and the committed route kept
		log.Printf("Rejected route update: %v", err)
		return nil, err
	}

	if name == "" {
		name = "current"
		if req.Preview {
			name = "preview"
		}
	}
	return toStruct(s.response(route, name))
}

// GetCacheStats serves GET /api/v1/cache
func (s *RouteService) GetCacheStats(_ context.Context, _ *http.Request, _ runtime.Marshaler) (proto.Message, error) {
	return toStruct(s.cache.Stats())
}

// FlushCache serves DELETE /api/v1/cache, dropping every memoised route
func (s *RouteService) FlushCache(_ context.Context, _ *http.Request, _ runtime.Marshaler) (proto.Message, error) {
	flushed := s.cache.Stats().TotalEntries
	s.cache.Clear()
	log.Printf("Flushed %d cached routes", flushed)
	return toStruct(map[string]int{"flushed": flushed})
}

func routeRequestFromQuery(r *http.Request) (RouteRequest, error) {
	q := r.URL.Query()
	req := RouteRequest{Preset: q.Get("preset")}

	if points := q.Get("points"); points != "" {
		n, err := strconv.Atoi(points)
		if err != nil {
			return RouteRequest{}, badRequest("invalid points: %s", points)
		}
		req.NumPoints = n
	}

	if req.Preset != "" {
		return req, nil
	}

	start, err := parseLonLat(q.Get("start"))
	if err != nil {
		return RouteRequest{}, badRequest("invalid start: %v", err)
	}
	end, err := parseLonLat(q.Get("end"))
	if err != nil {
		return RouteRequest{}, badRequest("invalid end: %v", err)
	}
	req.Start = &start
	req.End = &end
	return req, nil
}

// parseLonLat parses a "lon,lat" pair
func parseLonLat(s string) (geo.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("expected lon,lat but got %q", s)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude: %s", parts[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude: %s", parts[1])
	}

	return geo.Point{Longitude: lon, Latitude: lat}, nil
}
