package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

// EncodeSegment encodes a segment as a Google polyline string.
// Each segment is encoded on its own; joining segments into one polyline
// would reintroduce the jump across the antimeridian.
func EncodeSegment(segment Segment) string {
	coords := make([][]float64, len(segment))
	for i, p := range segment {
		// Polyline coordinates are [lat, lng]
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

// EncodeSegments encodes every segment, preserving order
func EncodeSegments(segments []Segment) []string {
	encoded := make([]string, len(segments))
	for i, segment := range segments {
		encoded[i] = EncodeSegment(segment)
	}
	return encoded
}

// DecodePolyline decodes a single polyline segment. Decoder errors from
// go-polyline are wrapped and can be matched with errors.Is.
func DecodePolyline(encoded string) (Path, error) {
	if encoded == "" {
		return nil, invalidInput("decode", "encoded polyline is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	path := make(Path, len(coords))
	for i, coord := range coords {
		// Latitude may legitimately exceed 90 on bowed polar routes
		if math.Abs(coord[1]) > 180 {
			return nil, invalidInput("decode", "longitude %g out of range at index %d", coord[1], i)
		}
		path[i] = Point{Longitude: coord[1], Latitude: coord[0]}
	}

	return path, nil
}
