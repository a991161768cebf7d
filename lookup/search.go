package lookup

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/felipevm/vendasbot/core/logger"
	"github.com/felipevm/vendasbot/records"
)

// maxConcurrentTerms bounds the provider fan-out for one search.
const maxConcurrentTerms = 4

// Searcher runs the prospecting pipeline: geocode the location once, fan
// out one Nearby call per search term (through the cache), merge and
// truncate. Term order is significant: when two terms return a place with
// the same normalized name, the earlier term's hit wins.
type Searcher struct {
	svc   Service
	cache Cache
}

func NewSearcher(svc Service, cache Cache) *Searcher {
	return &Searcher{svc: svc, cache: cache}
}

// SplitTerms parses the comma-separated type list a user submits into
// trimmed, non-empty search terms.
func SplitTerms(raw string) []string {
	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Search resolves location, looks up every term within radiusMeters and
// returns at most count deduplicated places.
func (s *Searcher) Search(ctx context.Context, chatID int64, location string, terms []string, radiusMeters, count int) ([]Place, error) {
	origin, err := s.svc.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	// One slot per term keeps the merge deterministic regardless of
	// which goroutine finishes first.
	perTerm := make([][]Place, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTerms)
	for i, term := range terms {
		g.Go(func() error {
			places, err := s.lookupTerm(gctx, chatID, location, origin, term, radiusMeters)
			if err != nil {
				return err
			}
			perTerm[i] = places
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeFirstSeen(perTerm, count)
	logger.Debug(ctx, "service.lookup", "search.done",
		slog.Int("terms", len(terms)),
		slog.Int("results", len(merged)))
	if len(merged) == 0 {
		return nil, ErrNoResults
	}
	return merged, nil
}

// Route runs Search and then asks the provider for an optimized round trip
// over the resulting subset.
func (s *Searcher) Route(ctx context.Context, chatID int64, location string, terms []string, radiusMeters, count int) ([]Place, *Itinerary, error) {
	places, err := s.Search(ctx, chatID, location, terms, radiusMeters, count)
	if err != nil {
		return nil, nil, err
	}
	origin, err := s.svc.Geocode(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	it, err := s.svc.OptimizeRoute(ctx, origin, places)
	if err != nil {
		return nil, nil, err
	}
	return places, it, nil
}

func (s *Searcher) lookupTerm(ctx context.Context, chatID int64, location string, origin LatLng, term string, radiusMeters int) ([]Place, error) {
	key := CacheKey{ChatID: chatID, Location: location, Category: term, RadiusMeters: radiusMeters}
	if s.cache != nil {
		if places, ok, err := s.cache.Get(ctx, key); err != nil {
			// A broken cache must not break prospecting.
			logger.Warn(ctx, "service.lookup", "cache.get_failed",
				slog.String("category", term),
				slog.String("err", err.Error()))
		} else if ok {
			return places, nil
		}
	}

	places, err := s.svc.Nearby(ctx, origin, radiusMeters, term)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, key, places); err != nil {
			logger.Warn(ctx, "service.lookup", "cache.put_failed",
				slog.String("category", term),
				slog.String("err", err.Error()))
		}
	}
	return places, nil
}

// mergeFirstSeen flattens per-term result slices in term order, keeping
// the first occurrence of each normalized place name.
func mergeFirstSeen(perTerm [][]Place, limit int) []Place {
	seen := make(map[string]struct{})
	var merged []Place
	for _, places := range perTerm {
		for _, p := range places {
			name := records.Normalize(p.Name)
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			merged = append(merged, p)
			if limit > 0 && len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}
