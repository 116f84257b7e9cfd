package routing

import (
	"github.com/dpup/dateline/internal/lib/geo"
)

// Endpoints is the authoritative start/end pair of a route.
// Everything else about a route is derived from it.
type Endpoints struct {
	Start geo.Point `json:"start"`
	End   geo.Point `json:"end"`
}

// Route is the derived geometry for an endpoint pair.
// Routes are recomputed wholesale whenever an endpoint moves and are never
// modified after Compute returns them.
type Route struct {
	Endpoints
	NumPoints       int           `json:"num_points"`
	Path            geo.Path      `json:"path"`
	Segments        []geo.Segment `json:"segments"`
	Crossings       int           `json:"crossings"`
	CrossesDateline bool          `json:"crosses_dateline"`
	LengthMeters    float64       `json:"length_meters"`
}

// Summary is the human-readable listing of a route, as shown next to the map
type Summary struct {
	PointCount      int            `json:"point_count"`
	CrossesDateline bool           `json:"crosses_dateline"`
	Label           string         `json:"label"`
	Preview         []ListingPoint `json:"preview"`
	Remaining       int            `json:"remaining"`
}

// ListingPoint is a rounded coordinate with the near-dateline marker
type ListingPoint struct {
	geo.Point
	NearDateline bool `json:"near_dateline,omitempty"`
}

const (
	// LabelCrossesPacific is shown for routes that cross the antimeridian
	LabelCrossesPacific = "CROSSES PACIFIC"

	// LabelStandard is shown for routes within one hemisphere span
	LabelStandard = "STANDARD ROUTE"

	// previewPoints is the number of coordinates listed before truncation
	previewPoints = 5
)

// clone returns a deep copy of the route geometry
func (r Route) clone() Route {
	r.Path = r.Path.Clone()
	if r.Segments != nil {
		segments := make([]geo.Segment, len(r.Segments))
		for i, segment := range r.Segments {
			segments[i] = geo.Segment(geo.Path(segment).Clone())
		}
		r.Segments = segments
	}
	return r
}
