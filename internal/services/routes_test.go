package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/dateline/internal/cache"
	"github.com/dpup/dateline/internal/config"
	"github.com/dpup/dateline/internal/lib/geo"
	"github.com/dpup/dateline/internal/lib/routing"
)

func newTestService(t *testing.T) *RouteService {
	t.Helper()
	cfg := config.DefaultConfig()
	svc, err := NewRouteService(cache.NewCache(), &cfg.Routes)
	require.NoError(t, err)
	return svc
}

func newTestMux(t *testing.T, svc *RouteService) *runtime.ServeMux {
	t.Helper()
	mux := runtime.NewServeMux()
	require.NoError(t, RegisterRouteServiceGateway(mux, svc))
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func get(mux http.Handler, target string) *httptest.ResponseRecorder {
	return do(mux, http.MethodGet, target, "")
}

func decodeRoute(t *testing.T, rec *httptest.ResponseRecorder) RouteResponse {
	t.Helper()
	var resp RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetRoute_Preset(t *testing.T) {
	mux := newTestMux(t, newTestService(t))

	rec := get(mux, "/api/v1/route?preset=tokyo-la")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeRoute(t, rec)
	assert.Equal(t, "Tokyo → LA (Crosses Dateline)", resp.Name)
	assert.Len(t, resp.Route.Path, 26)
	assert.Len(t, resp.Route.Segments, 2)
	assert.Len(t, resp.EncodedSegments, 2)
	assert.Equal(t, routing.LabelCrossesPacific, resp.Summary.Label)
	assert.Len(t, resp.Summary.Preview, 5)
}

func TestGetRoute_Coordinates(t *testing.T) {
	svc := newTestService(t)
	mux := newTestMux(t, svc)

	rec := get(mux, "/api/v1/route?start=-74.006,40.7128&end=-0.1276,51.5074&points=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeRoute(t, rec)
	assert.Len(t, resp.Route.Path, 11)
	assert.Len(t, resp.Route.Segments, 1)
	assert.False(t, resp.Summary.CrossesDateline)
	assert.Equal(t, routing.LabelStandard, resp.Summary.Label)
	assert.Equal(t, geo.Point{Longitude: -74.006, Latitude: 40.7128}, resp.Route.Path[0])

	// Second request is served from the cache
	assert.Equal(t, 1, svc.cache.Stats().FreshEntries)
	rec = get(mux, "/api/v1/route?start=-74.006,40.7128&end=-0.1276,51.5074&points=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp, decodeRoute(t, rec))
	assert.Equal(t, 1, svc.cache.Stats().TotalEntries)
}

func TestGetRoute_EndpointsOnDateline(t *testing.T) {
	mux := newTestMux(t, newTestService(t))

	rec := get(mux, "/api/v1/route?start=180,0&end=-180,10&points=4")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeRoute(t, rec)
	assert.Len(t, resp.Route.Segments, 1)
	assert.False(t, resp.Route.CrossesDateline)
}

func TestGetRoute_Formats(t *testing.T) {
	mux := newTestMux(t, newTestService(t))

	rec := get(mux, "/api/v1/route?preset=tokyo-la&format=geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "MultiLineString", fc.Features[0].Geometry.GeoJSONType())

	rec = get(mux, "/api/v1/route?preset=ny-london&format=kml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<LineString>")

	rec = get(mux, "/api/v1/route?preset=tokyo-la&format=polyline")
	require.Equal(t, http.StatusOK, rec.Code)
	var polylines map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &polylines))
	assert.Len(t, polylines["segments"], 2)

	rec = get(mux, "/api/v1/route?preset=tokyo-la&format=svg")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRoute_Errors(t *testing.T) {
	mux := newTestMux(t, newTestService(t))

	tests := map[string]string{
		"unknown preset":  "/api/v1/route?preset=mars",
		"missing end":     "/api/v1/route?start=1,2",
		"bad start":       "/api/v1/route?start=abc,2&end=1,2",
		"bad points":      "/api/v1/route?preset=tokyo-la&points=many",
		"zero points":     "/api/v1/route?preset=tokyo-la&points=-1",
		"too many points": "/api/v1/route?preset=tokyo-la&points=1000000",
		"nan endpoint":    "/api/v1/route?start=NaN,2&end=1,2",
	}

	for name, target := range tests {
		rec := get(mux, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)

		var body struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), name)
		assert.NotEmpty(t, body.Message, name)
	}
}

func TestListPresets(t *testing.T) {
	mux := newTestMux(t, newTestService(t))

	rec := get(mux, "/api/v1/presets")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Default string               `json:"default"`
		Presets []config.PresetRoute `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tokyo-la", body.Default)
	assert.Len(t, body.Presets, 2)
}

func TestCurrentRoute_PreviewThenCommit(t *testing.T) {
	svc := newTestService(t)
	mux := newTestMux(t, svc)

	rec := get(mux, "/api/v1/route/current")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeRoute(t, rec).Route.CrossesDateline, "editor starts on the default preset")

	post := func(body string) *httptest.ResponseRecorder {
		return do(mux, http.MethodPost, "/api/v1/route/current", body)
	}

	rec = post(`{"start":{"lng":-74.006,"lat":40.7128},"end":{"lng":-0.1276,"lat":51.5074},"preview":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decodeRoute(t, rec)
	assert.Equal(t, "preview", preview.Name)
	assert.False(t, preview.Route.CrossesDateline)

	// Preview leaves the committed route alone
	assert.True(t, svc.editor.Current().CrossesDateline)

	rec = post(`{"start":{"lng":-74.006,"lat":40.7128},"end":{"lng":-0.1276,"lat":51.5074}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.editor.Current().CrossesDateline)
	assert.Equal(t, geo.Point{Longitude: -0.1276, Latitude: 51.5074}, svc.editor.Endpoints().End)

	rec = post(`{"start":{"lng":1,"lat":2}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, geo.Point{Longitude: -0.1276, Latitude: 51.5074}, svc.editor.Endpoints().End)
}

func TestCache_StatsAndFlush(t *testing.T) {
	svc := newTestService(t)
	mux := newTestMux(t, svc)

	require.Equal(t, http.StatusOK, get(mux, "/api/v1/route?preset=tokyo-la").Code)
	require.Equal(t, http.StatusOK, get(mux, "/api/v1/route?preset=ny-london").Code)

	rec := get(mux, "/api/v1/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats cache.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 2, stats.FreshEntries)

	rec = do(mux, http.MethodDelete, "/api/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flushed map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flushed))
	assert.Equal(t, 2, flushed["flushed"])
	assert.Equal(t, 0, svc.cache.Stats().TotalEntries)
}

func TestNewRouteService_NoPresets(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Routes.Presets = nil
	cfg.Routes.DefaultPreset = ""

	_, err := NewRouteService(cache.NewCache(), &cfg.Routes)
	assert.Error(t, err)
}

func TestParseLonLat(t *testing.T) {
	p, err := parseLonLat(" 139.6917, 35.6895 ")
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Longitude: 139.6917, Latitude: 35.6895}, p)

	_, err = parseLonLat("1")
	assert.Error(t, err)
	_, err = parseLonLat("1,x")
	assert.Error(t, err)
}
