// Package lookup wraps the external geocoding/places/directions provider
// behind a narrow interface and adds the prospecting conveniences the bot
// needs: a Postgres-backed 24h result cache and multi-term fan-out search.
package lookup

import (
	"context"
	"errors"
	"time"
)

// ErrNoResults indicates the provider answered but found nothing.
var ErrNoResults = errors.New("lookup: no results")

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one prospecting hit.
type Place struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Coord   LatLng  `json:"coord"`
	Rating  float64 `json:"rating,omitempty"`
}

// Leg is one hop of an optimized itinerary.
type Leg struct {
	From           string        `json:"from"`
	To             string        `json:"to"`
	DistanceMeters int           `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
}

// Itinerary is the optimized visiting order plus per-hop travel info.
type Itinerary struct {
	Stops []Place `json:"stops"`
	Legs  []Leg   `json:"legs"`
}

// Service is the provider boundary. Implementations must be safe for
// concurrent use; the search fan-out issues parallel Nearby calls.
type Service interface {
	// Geocode resolves free-text into coordinates. ErrNoResults when the
	// provider cannot place the address.
	Geocode(ctx context.Context, address string) (LatLng, error)

	// Nearby finds places matching keyword within radiusMeters of origin.
	Nearby(ctx context.Context, origin LatLng, radiusMeters int, keyword string) ([]Place, error)

	// OptimizeRoute orders stops into the shortest round trip from origin
	// and reports per-leg distance and duration.
	OptimizeRoute(ctx context.Context, origin LatLng, stops []Place) (*Itinerary, error)
}
