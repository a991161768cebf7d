package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"googlemaps.github.io/maps"

	"github.com/felipevm/vendasbot/core/logger"
)

// GoogleService implements Service on the Google Maps Platform: Geocoding,
// Places Nearby Search and Directions with waypoint optimization.
type GoogleService struct {
	client *maps.Client
}

// NewGoogleService builds the provider client. httpClient may be nil; pass
// the retrying transport built by core/telegram's BuildHTTPClient to share
// its backoff behavior.
func NewGoogleService(apiKey string, httpClient *http.Client) (*GoogleService, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("lookup: maps client: %w", err)
	}
	return &GoogleService{client: client}, nil
}

func (g *GoogleService) Geocode(ctx context.Context, address string) (LatLng, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return LatLng{}, fmt.Errorf("lookup: geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return LatLng{}, ErrNoResults
	}
	loc := results[0].Geometry.Location
	logger.Debug(ctx, "service.lookup", "geocode.ok",
		slog.String("address", logger.Sanitize(address)),
		slog.Float64("lat", loc.Lat),
		slog.Float64("lng", loc.Lng))
	return LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleService) Nearby(ctx context.Context, origin LatLng, radiusMeters int, keyword string) ([]Place, error) {
	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: origin.Lat, Lng: origin.Lng},
		Radius:   uint(radiusMeters),
		Keyword:  keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup: nearby %q: %w", keyword, err)
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, Place{
			Name:    r.Name,
			Address: r.Vicinity,
			Coord:   LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Rating:  float64(r.Rating),
		})
	}
	logger.Debug(ctx, "service.lookup", "nearby.ok",
		slog.String("keyword", keyword),
		slog.Int("radius_m", radiusMeters),
		slog.Int("hits", len(places)))
	return places, nil
}

func (g *GoogleService) OptimizeRoute(ctx context.Context, origin LatLng, stops []Place) (*Itinerary, error) {
	if len(stops) == 0 {
		return nil, ErrNoResults
	}

	waypoints := make([]string, len(stops))
	for i, p := range stops {
		waypoints[i] = coordParam(p.Coord)
	}

	// Round trip: start and finish at the rep's own location, let the
	// provider pick the stop order.
	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      coordParam(origin),
		Destination: coordParam(origin),
		Waypoints:   waypoints,
		Optimize:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup: directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, ErrNoResults
	}
	route := routes[0]

	ordered := make([]Place, 0, len(stops))
	for _, idx := range route.WaypointOrder {
		if idx >= 0 && idx < len(stops) {
			ordered = append(ordered, stops[idx])
		}
	}
	if len(ordered) == 0 {
		ordered = stops
	}

	it := &Itinerary{Stops: ordered}
	prev := "Origem"
	for i, leg := range route.Legs {
		to := "Origem"
		if i < len(ordered) {
			to = ordered[i].Name
		}
		it.Legs = append(it.Legs, Leg{
			From:           prev,
			To:             to,
			DistanceMeters: leg.Distance.Meters,
			Duration:       leg.Duration,
		})
		prev = to
	}
	logger.Debug(ctx, "service.lookup", "route.ok",
		slog.Int("stops", len(ordered)),
		slog.Int("legs", len(it.Legs)))
	return it, nil
}

func coordParam(c LatLng) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}
