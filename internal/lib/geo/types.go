package geo

// Point represents a geographic coordinate.
// Longitude is conventionally within [-180, 180]; latitude is not clamped.
type Point struct {
	Longitude float64 `json:"lng"`
	Latitude  float64 `json:"lat"`
}

// Path is an ordered, unsplit sequence of points from one endpoint to another
type Path []Point

// Segment is a run of a Path in which no two consecutive points differ in
// longitude by more than 180 degrees
type Segment []Point

const (
	// DefaultNumPoints is the interval count used when the caller has no preference
	DefaultNumPoints = 25

	// CurvatureDegrees is the latitude bump applied at the midpoint of a route
	CurvatureDegrees = 5.0

	// DisplayPrecision is the number of decimals used for coordinate listings
	DisplayPrecision = 4

	// DatelineMarkerLongitude flags points close enough to the antimeridian
	// to be highlighted in coordinate listings
	DatelineMarkerLongitude = 170.0
)

// Coordinates returns the point as a [lon, lat] pair
func (p Point) Coordinates() [2]float64 {
	return [2]float64{p.Longitude, p.Latitude}
}

// Clone returns a copy of the path that shares no storage with the original
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}
