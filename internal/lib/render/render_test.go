package render

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/dateline/internal/lib/geo"
	"github.com/dpup/dateline/internal/lib/routing"
)

var (
	tokyoToLA  = routing.Endpoints{Start: geo.Point{Longitude: 139.6917, Latitude: 35.6895}, End: geo.Point{Longitude: -118.2437, Latitude: 34.0522}}
	nyToLondon = routing.Endpoints{Start: geo.Point{Longitude: -74.006, Latitude: 40.7128}, End: geo.Point{Longitude: -0.1276, Latitude: 51.5074}}
)

func TestGeometry_SingleSegment(t *testing.T) {
	route, err := routing.Compute(nyToLondon, geo.DefaultNumPoints)
	require.NoError(t, err)

	g := Geometry(route.Segments)
	ls, ok := g.(orb.LineString)
	require.True(t, ok, "single segment should render as a LineString")
	assert.Len(t, ls, len(route.Path))
	assert.Equal(t, orb.Point{-74.006, 40.7128}, ls[0])
}

func TestGeometry_MultipleSegments(t *testing.T) {
	route, err := routing.Compute(tokyoToLA, geo.DefaultNumPoints)
	require.NoError(t, err)

	g := Geometry(route.Segments)
	multi, ok := g.(orb.MultiLineString)
	require.True(t, ok, "crossing route should render as a MultiLineString")
	require.Len(t, multi, 2)

	assert.Equal(t, 180.0, multi[0][len(multi[0])-1].Lon())
	assert.Equal(t, -180.0, multi[1][0].Lon())
}

func TestExtractCoordinates(t *testing.T) {
	route, err := routing.Compute(nyToLondon, geo.DefaultNumPoints)
	require.NoError(t, err)

	path, err := ExtractCoordinates(Geometry(route.Segments))
	require.NoError(t, err)
	assert.Equal(t, route.Path, path)

	route, err = routing.Compute(tokyoToLA, geo.DefaultNumPoints)
	require.NoError(t, err)

	path, err = ExtractCoordinates(Geometry(route.Segments))
	require.NoError(t, err)

	// The closing crossing point of the first part is kept, its mirror is not
	require.Len(t, path, len(route.Path)+1)
	first := route.Segments[0]
	assert.Equal(t, first[len(first)-1], path[len(first)-1])
	assert.Equal(t, route.Path[0], path[0])
	assert.Equal(t, route.Path[len(route.Path)-1], path[len(path)-1])
}

func TestExtractCoordinates_Unsupported(t *testing.T) {
	_, err := ExtractCoordinates(orb.Point{1, 2})
	assert.Error(t, err)

	_, err = ExtractCoordinates(nil)
	assert.Error(t, err)
}

func TestGeoJSON(t *testing.T) {
	route, err := routing.Compute(tokyoToLA, geo.DefaultNumPoints)
	require.NoError(t, err)

	data, err := GeoJSON(route, "Tokyo to LA")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	line := fc.Features[0]
	assert.Equal(t, "MultiLineString", line.Geometry.GeoJSONType())
	assert.Equal(t, "Tokyo to LA", line.Properties["name"])
	assert.Equal(t, true, line.Properties["crosses_dateline"])
	assert.Equal(t, float64(26), line.Properties["point_count"])
	assert.Equal(t, float64(1), line.Properties["crossings"])

	assert.Equal(t, "start", fc.Features[1].Properties["role"])
	assert.Equal(t, orb.Point{139.6917, 35.6895}, fc.Features[1].Geometry)
	assert.Equal(t, "end", fc.Features[2].Properties["role"])
}

func TestKML(t *testing.T) {
	route, err := routing.Compute(tokyoToLA, geo.DefaultNumPoints)
	require.NoError(t, err)

	data, err := KML(route, "Tokyo to LA")
	require.NoError(t, err)

	doc := string(data)
	assert.Contains(t, doc, "<kml")
	assert.Contains(t, doc, "<MultiGeometry>")
	assert.Equal(t, 2, strings.Count(doc, "<LineString>"))
	assert.Equal(t, 3, strings.Count(doc, "<Placemark>"))
	assert.Contains(t, doc, "Tokyo to LA")

	route, err = routing.Compute(nyToLondon, geo.DefaultNumPoints)
	require.NoError(t, err)

	data, err = KML(route, "NY to London")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<MultiGeometry>")
	assert.Equal(t, 1, strings.Count(string(data), "<LineString>"))
}
