package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml/v2"

	"github.com/dpup/dateline/internal/lib/geo"
	"github.com/dpup/dateline/internal/lib/routing"
)

// routeColor matches the map's route stroke (#FF6B6B)
var routeColor = color.RGBA{R: 0xff, G: 0x6b, B: 0x6b, A: 0xff}

// Geometry converts dateline segments into display geometry.
// A single segment renders as one connected line; more than one renders as
// independent lines so nothing is drawn across the antimeridian.
func Geometry(segments []geo.Segment) orb.Geometry {
	if len(segments) == 1 {
		return lineString(segments[0])
	}

	multi := make(orb.MultiLineString, len(segments))
	for i, segment := range segments {
		multi[i] = lineString(segment)
	}
	return multi
}

func lineString(segment geo.Segment) orb.LineString {
	ls := make(orb.LineString, len(segment))
	for i, p := range segment {
		ls[i] = orb.Point(p.Coordinates())
	}
	return ls
}

// ExtractCoordinates flattens display geometry back into a coordinate list.
// For multi-part lines the first point of every later part is skipped since
// it mirrors the crossing point that closed the previous part.
func ExtractCoordinates(g orb.Geometry) (geo.Path, error) {
	switch g := g.(type) {
	case orb.LineString:
		return toPath(g), nil
	case orb.MultiLineString:
		var path geo.Path
		for i, ls := range g {
			if i == 0 {
				path = append(path, toPath(ls)...)
				continue
			}
			if len(ls) > 0 {
				path = append(path, toPath(ls[1:])...)
			}
		}
		return path, nil
	case nil:
		return nil, errors.New("geometry is nil")
	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.GeoJSONType())
	}
}

func toPath(ls orb.LineString) geo.Path {
	path := make(geo.Path, len(ls))
	for i, p := range ls {
		path[i] = geo.Point{Longitude: p.Lon(), Latitude: p.Lat()}
	}
	return path
}

// Feature builds a GeoJSON feature for a route with its summary as properties
func Feature(route routing.Route, name string) *geojson.Feature {
	f := geojson.NewFeature(Geometry(route.Segments))
	f.Properties["name"] = name
	f.Properties["role"] = "route"
	f.Properties["point_count"] = len(route.Path)
	f.Properties["crosses_dateline"] = route.CrossesDateline
	f.Properties["crossings"] = route.Crossings
	f.Properties["length_meters"] = route.LengthMeters
	return f
}

// FeatureCollection returns the route line plus start and end control points
func FeatureCollection(route routing.Route, name string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(Feature(route, name))
	fc.Append(endpointFeature(route.Start, "start"))
	fc.Append(endpointFeature(route.End, "end"))
	return fc
}

func endpointFeature(p geo.Point, role string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point(p.Coordinates()))
	f.Properties["role"] = role
	return f
}

// GeoJSON marshals the feature collection for a route
func GeoJSON(route routing.Route, name string) ([]byte, error) {
	data, err := FeatureCollection(route, name).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	return data, nil
}

// KML renders a route as a KML document with start and end placemarks.
// Multi-part routes become a MultiGeometry so viewers draw each part separately.
func KML(route routing.Route, name string) ([]byte, error) {
	var geometry kml.Element
	if len(route.Segments) == 1 {
		geometry = kmlLineString(route.Segments[0])
	} else {
		parts := make([]kml.Element, len(route.Segments))
		for i, segment := range route.Segments {
			parts[i] = kmlLineString(segment)
		}
		geometry = kml.MultiGeometry(parts...)
	}

	doc := kml.KML(
		kml.Document(
			kml.Name(name),
			kml.SharedStyle("route-line",
				kml.LineStyle(
					kml.Color(routeColor),
					kml.Width(4),
				),
			),
			kml.Placemark(
				kml.Name(name),
				kml.StyleURL("#route-line"),
				geometry,
			),
			kmlPointPlacemark("start", route.Start),
			kmlPointPlacemark("end", route.End),
		),
	)

	var buf bytes.Buffer
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to write KML: %w", err)
	}
	return buf.Bytes(), nil
}

func kmlLineString(segment geo.Segment) kml.Element {
	coords := make([]kml.Coordinate, len(segment))
	for i, p := range segment {
		coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}
	return kml.LineString(kml.Coordinates(coords...))
}

func kmlPointPlacemark(name string, p geo.Point) kml.Element {
	return kml.Placemark(
		kml.Name(name),
		kml.Point(kml.Coordinates(kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude})),
	)
}
