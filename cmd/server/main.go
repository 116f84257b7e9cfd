package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"

	"github.com/dpup/dateline/internal/cache"
	"github.com/dpup/dateline/internal/config"
	"github.com/dpup/dateline/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(context.Background(), appConfig.Routes.CleanupInterval)

	routeService, err := services.NewRouteService(cacheInstance, &appConfig.Routes)
	if err != nil {
		log.Fatalf("Failed to create route service: %v", err)
	}

	log.Printf("Dateline route server starting")
	log.Printf("Presets: %d (default %q), points per route: %d",
		len(appConfig.Routes.Presets), appConfig.Routes.DefaultPreset, appConfig.Routes.NumPoints)

	// Server configuration (port, etc.) is loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithGRPCReflection(),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
	)

	// Register gRPC services using Prefab's service registrar
	services.RegisterRouteServiceServer(server.ServiceRegistrar(), routeService)

	// Register gateway handlers using Prefab's gateway args
	if err := services.RegisterRouteServiceHandlerFromEndpoint(server.GatewayArgs()); err != nil {
		log.Fatalf("Failed to register route service gateway: %v", err)
	}

	_, mux, _, _ := server.GatewayArgs()
	if err := services.RegisterRouteServiceGateway(mux, routeService); err != nil {
		log.Fatalf("Failed to register route API: %v", err)
	}

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig overlays the "routes" section of Prefab's config on the defaults.
// Configuration is loaded from prefab.yaml and environment variables with PF__ prefix
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("routes", &appConfig.Routes); err != nil {
		log.Fatalf("Failed to unmarshal routes section: %v", err)
	}

	if err := appConfig.Routes.Validate(); err != nil {
		log.Fatalf("Invalid routes configuration: %v", err)
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>dateline routes</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">dateline routes</span>

Curved routes between two points, split at the antimeridian so they can be
drawn without wrapping around the globe.

<span class="header">API Endpoints:</span>

  <a href="/api/v1/presets">GET  /api/v1/presets</a>                     - Preset routes
  <a href="/api/v1/route?preset=tokyo-la">GET  /api/v1/route?preset={id}</a>          - Route for a preset
  GET  /api/v1/route?start=lon,lat&amp;end=lon,lat - Route between two points
       &amp;points=N&amp;format=json|geojson|kml|polyline
  <a href="/api/v1/route/current">GET  /api/v1/route/current</a>               - Route being edited
  POST /api/v1/route/current               - Preview or commit new endpoints
  POST /api/v1/route/compute               - ComputeRoute via the gRPC gateway
  <a href="/api/v1/cache">GET  /api/v1/cache</a>                       - Route cache statistics
  DELETE /api/v1/cache                     - Flush cached routes

<span class="header">gRPC:</span>
  dateline.v1.RouteService/ComputeRoute (google.protobuf.Struct)

<span class="header">Example Usage:</span>
  curl '/api/v1/route?start=139.6917,35.6895&amp;end=-118.2437,34.0522&amp;format=geojson'
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
