package routing

import (
	"fmt"
	"sync"

	"github.com/dpup/dateline/internal/lib/geo"
)

// Compute interpolates the curved path between the endpoints and splits it at the dateline
func Compute(endpoints Endpoints, numPoints int) (Route, error) {
	path, err := geo.Interpolate(endpoints.Start, endpoints.End, numPoints)
	if err != nil {
		return Route{}, fmt.Errorf("failed to interpolate route: %w", err)
	}

	segments, err := geo.SplitAtDateline(path)
	if err != nil {
		return Route{}, fmt.Errorf("failed to split route at dateline: %w", err)
	}

	crossings := len(segments) - 1
	return Route{
		Endpoints:       endpoints,
		NumPoints:       numPoints,
		Path:            path,
		Segments:        segments,
		Crossings:       crossings,
		CrossesDateline: crossings > 0,
		LengthMeters:    geo.LengthMeters(path),
	}, nil
}

// Editor owns the single mutable endpoint pair of an interactively edited route.
// Drag updates call Preview for transient geometry and Commit once the drag
// completes. A failed recomputation leaves the committed route untouched.
type Editor struct {
	mutex     sync.RWMutex
	numPoints int
	endpoints Endpoints
	committed Route
}

// NewEditor creates an editor and computes the initial route
func NewEditor(endpoints Endpoints, numPoints int) (*Editor, error) {
	route, err := Compute(endpoints, numPoints)
	if err != nil {
		return nil, err
	}

	return &Editor{
		numPoints: numPoints,
		endpoints: endpoints,
		committed: route,
	}, nil
}

// Endpoints returns the committed endpoint pair
func (e *Editor) Endpoints() Endpoints {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.endpoints
}

// Current returns a copy of the committed route
func (e *Editor) Current() Route {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.committed.clone()
}

// NumPoints returns the interval count used for every recomputation
func (e *Editor) NumPoints() int {
	return e.numPoints
}

// Preview computes the route for a candidate endpoint pair without committing it
func (e *Editor) Preview(endpoints Endpoints) (Route, error) {
	return Compute(endpoints, e.numPoints)
}

// Commit replaces the endpoint pair and the committed route
func (e *Editor) Commit(endpoints Endpoints) (Route, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.commitLocked(endpoints)
}

// MoveStart commits the current end with a new start point
func (e *Editor) MoveStart(start geo.Point) (Route, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.commitLocked(Endpoints{Start: start, End: e.endpoints.End})
}

// MoveEnd commits the current start with a new end point
func (e *Editor) MoveEnd(end geo.Point) (Route, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.commitLocked(Endpoints{Start: e.endpoints.Start, End: end})
}

func (e *Editor) commitLocked(endpoints Endpoints) (Route, error) {
	route, err := Compute(endpoints, e.numPoints)
	if err != nil {
		return Route{}, err
	}
	e.endpoints = endpoints
	e.committed = route
	return route, nil
}

// Summarize builds the coordinate listing for a route: the rounded path,
// the dateline label and the first few points with near-dateline markers
func Summarize(route Route, precision int) Summary {
	rounded := geo.RoundPath(route.Path, precision)

	label := LabelStandard
	if route.CrossesDateline {
		label = LabelCrossesPacific
	}

	n := min(previewPoints, len(rounded))
	preview := make([]ListingPoint, n)
	for i := 0; i < n; i++ {
		preview[i] = ListingPoint{
			Point:        rounded[i],
			NearDateline: geo.NearDateline(rounded[i]),
		}
	}

	return Summary{
		PointCount:      len(rounded),
		CrossesDateline: route.CrossesDateline,
		Label:           label,
		Preview:         preview,
		Remaining:       len(rounded) - n,
	}
}
