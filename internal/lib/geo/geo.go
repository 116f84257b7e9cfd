package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/shopspring/decimal"
)

// earthRadiusMeters is the mean radius used for display distances
const earthRadiusMeters = 6371000

// Interpolate generates a curved line between two points (great circle approximation).
// The result has exactly numPoints+1 points, starts at start and ends at end
// with its longitude normalized into [-180, 180].
func Interpolate(start, end Point, numPoints int) (Path, error) {
	if numPoints < 1 {
		return nil, invalidInput("interpolate", "numPoints must be >= 1, got %d", numPoints)
	}
	if !isFinitePoint(start) || !isFinitePoint(end) {
		return nil, invalidInput("interpolate", "endpoints must have finite coordinates")
	}

	// Interpolate towards an unwrapped end longitude so the line runs through
	// the antimeridian instead of around the globe
	endLon := unwrapLongitude(start.Longitude, end.Longitude)

	path := make(Path, numPoints+1)
	for i := 0; i <= numPoints; i++ {
		t := float64(i) / float64(numPoints)

		lat := start.Latitude + (end.Latitude-start.Latitude)*t
		lon := start.Longitude + (endLon-start.Longitude)*t

		// Symmetric bump, zero at both ends and CurvatureDegrees at t=0.5
		lat += math.Sin(t*math.Pi) * CurvatureDegrees

		p := Point{Longitude: NormalizeLongitude(lon), Latitude: lat}
		if !isFinitePoint(p) {
			return nil, invalidInput("interpolate", "coordinate overflow at index %d", i)
		}
		path[i] = p
	}

	// sin(pi) and the unwrap round trip leave residue in the last ulp;
	// the endpoints are authoritative. The end is pinned first so that a
	// one-interval path pins its start against the final end point.
	path[numPoints] = pinEndpoint(end, path[numPoints-1])
	path[0] = pinEndpoint(start, path[1])

	return path, nil
}

// pinEndpoint returns p with its longitude normalized. An endpoint on the
// antimeridian takes the sign of its neighbor so the path never jumps from
// 180 to -180 at its ends.
func pinEndpoint(p, neighbor Point) Point {
	lon := NormalizeLongitude(p.Longitude)
	if math.Abs(lon) == 180 {
		lon = math.Copysign(180, neighbor.Longitude)
	}
	return Point{Longitude: lon, Latitude: p.Latitude}
}

// SplitAtDateline splits a path at every antimeridian crossing.
// Each crossing closes the current segment at (±180, lat) and opens the next
// one at the mirrored longitude, so no segment ever jumps more than 180 degrees.
func SplitAtDateline(path Path) ([]Segment, error) {
	if len(path) < 2 {
		return nil, invalidInput("segment", "path must have at least 2 points, got %d", len(path))
	}
	for i, p := range path {
		if !isFinitePoint(p) {
			return nil, invalidInput("segment", "point %d has non-finite coordinates", i)
		}
	}

	var segments []Segment
	current := Segment{path[0]}

	for i := 1; i < len(path); i++ {
		prev := path[i-1]
		curr := path[i]

		if !CrossesDatelineBetween(prev.Longitude, curr.Longitude) {
			current = append(current, curr)
			continue
		}

		crossing, err := crossingPoint(i, prev, curr)
		if err != nil {
			return nil, err
		}

		current = append(current, crossing)
		segments = append(segments, current)

		// Start new segment from the other side of the dateline
		mirror := Point{Longitude: -crossing.Longitude, Latitude: crossing.Latitude}
		current = Segment{mirror, curr}
	}

	if len(current) > 1 {
		segments = append(segments, current)
	}

	return segments, nil
}

// crossingPoint finds where the line between prev and curr meets the antimeridian
func crossingPoint(index int, prev, curr Point) (Point, error) {
	crossingLon := -180.0
	if prev.Longitude > curr.Longitude {
		crossingLon = 180.0
	}

	// Same unwrap rule as Interpolate, applied to the pair
	var lonDiff float64
	if curr.Longitude > prev.Longitude {
		lonDiff = curr.Longitude - 360 - prev.Longitude
	} else {
		lonDiff = curr.Longitude - (prev.Longitude - 360)
	}

	degenerate := &DegenerateCrossingError{Index: index, Prev: prev, Curr: curr, LonDiff: lonDiff}
	if lonDiff == 0 || !isFinite(lonDiff) {
		return Point{}, degenerate
	}

	ratio := math.Abs((crossingLon - prev.Longitude) / lonDiff)
	degenerate.Ratio = ratio
	if !isFinite(ratio) {
		return Point{}, degenerate
	}

	lat := prev.Latitude + (curr.Latitude-prev.Latitude)*ratio
	if !isFinite(lat) {
		return Point{}, degenerate
	}

	return Point{Longitude: crossingLon, Latitude: lat}, nil
}

// CrossesDatelineBetween reports whether a line between two longitudes crosses the antimeridian
func CrossesDatelineBetween(lon1, lon2 float64) bool {
	return math.Abs(lon1-lon2) > 180
}

// CrossesDateline reports whether any consecutive pair in the path crosses the antimeridian
func CrossesDateline(path Path) bool {
	return CountCrossings(path) > 0
}

// CountCrossings returns the number of antimeridian crossings in the path
func CountCrossings(path Path) int {
	count := 0
	for i := 1; i < len(path); i++ {
		if CrossesDatelineBetween(path[i-1].Longitude, path[i].Longitude) {
			count++
		}
	}
	return count
}

// NearDateline reports whether a point is close enough to the antimeridian to flag in listings
func NearDateline(p Point) bool {
	return math.Abs(p.Longitude) > DatelineMarkerLongitude
}

// NormalizeLongitude shifts a longitude by one turn when it falls outside [-180, 180].
// Inputs further than one turn out of range are only shifted once.
func NormalizeLongitude(lon float64) float64 {
	if lon > 180 {
		lon -= 360
	}
	if lon < -180 {
		lon += 360
	}
	return lon
}

// unwrapLongitude returns the end longitude to interpolate towards so that the
// shorter way around the globe is taken
func unwrapLongitude(startLon, endLon float64) float64 {
	if math.Abs(startLon-endLon) <= 180 {
		return endLon
	}
	if startLon > endLon {
		return endLon + 360 // eastward across the dateline
	}
	return endLon - 360 // westward across the dateline
}

// RoundPath returns a copy of the path with every coordinate rounded to the
// given number of decimal places, for human-readable coordinate listings
func RoundPath(path Path, precision int) Path {
	out := make(Path, len(path))
	for i, p := range path {
		out[i] = Point{
			Longitude: roundCoordinate(p.Longitude, precision),
			Latitude:  roundCoordinate(p.Latitude, precision),
		}
	}
	return out
}

func roundCoordinate(v float64, precision int) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(int32(precision)).InexactFloat64()
}

// LengthMeters sums the great-circle distances between consecutive points.
// Points are normalized onto the sphere first, so an over-bowed latitude is
// measured at the pole.
func LengthMeters(path Path) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		a := s2.LatLngFromDegrees(path[i-1].Latitude, path[i-1].Longitude).Normalized()
		b := s2.LatLngFromDegrees(path[i].Latitude, path[i].Longitude).Normalized()
		total += a.Distance(b).Radians() * earthRadiusMeters
	}
	return total
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFinitePoint(p Point) bool {
	return isFinite(p.Longitude) && isFinite(p.Latitude)
}
