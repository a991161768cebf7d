package lookup

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu          sync.Mutex
	nearbyCalls []string
	byKeyword   map[string][]Place
}

func (f *fakeService) Geocode(context.Context, string) (LatLng, error) {
	return LatLng{Lat: -23.55, Lng: -46.63}, nil
}

func (f *fakeService) Nearby(_ context.Context, _ LatLng, _ int, keyword string) ([]Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearbyCalls = append(f.nearbyCalls, keyword)
	return f.byKeyword[keyword], nil
}

func (f *fakeService) OptimizeRoute(_ context.Context, _ LatLng, stops []Place) (*Itinerary, error) {
	// Reverse order so tests can tell the optimizer ran.
	ordered := make([]Place, 0, len(stops))
	for i := len(stops) - 1; i >= 0; i-- {
		ordered = append(ordered, stops[i])
	}
	return &Itinerary{Stops: ordered}, nil
}

func (f *fakeService) callCount(keyword string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.nearbyCalls {
		if k == keyword {
			n++
		}
	}
	return n
}

type memCache struct {
	mu      sync.Mutex
	entries map[CacheKey][]Place
}

func newMemCache() *memCache { return &memCache{entries: make(map[CacheKey][]Place)} }

func (m *memCache) Get(_ context.Context, key CacheKey) ([]Place, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	places, ok := m.entries[key]
	return places, ok, nil
}

func (m *memCache) Put(_ context.Context, key CacheKey, places []Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = places
	return nil
}

func place(name string) Place { return Place{Name: name, Address: "Av. Central, 100"} }

func TestSplitTerms(t *testing.T) {
	assert.Equal(t, []string{"padaria", "mercado"}, SplitTerms(" padaria , mercado "))
	assert.Equal(t, []string{"farmácia"}, SplitTerms("farmácia,, ,"))
	assert.Empty(t, SplitTerms(" , "))
}

func TestSearchMergesFirstSeenWins(t *testing.T) {
	svc := &fakeService{byKeyword: map[string][]Place{
		"padaria": {
			{Name: "Café Azul", Address: "Rua A"},
			place("Padoca do Zé"),
		},
		"cafeteria": {
			// Same name, different accents and case: must lose to the
			// earlier term's entry.
			{Name: "cafe azul", Address: "Rua B"},
			place("Grão Nobre"),
		},
	}}
	s := NewSearcher(svc, newMemCache())

	got, err := s.Search(context.Background(), 10, "Centro, São Paulo", []string{"padaria", "cafeteria"}, 2000, 10)
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	addrs := make(map[string]string)
	for _, p := range got {
		names = append(names, p.Name)
		addrs[p.Name] = p.Address
	}
	assert.Equal(t, []string{"Café Azul", "Padoca do Zé", "Grão Nobre"}, names)
	assert.Equal(t, "Rua A", addrs["Café Azul"], "first term's hit must win the name collision")
}

func TestSearchTruncatesToCount(t *testing.T) {
	svc := &fakeService{byKeyword: map[string][]Place{
		"mercado": {place("A"), place("B"), place("C"), place("D")},
	}}
	s := NewSearcher(svc, newMemCache())

	got, err := s.Search(context.Background(), 10, "Centro", []string{"mercado"}, 1000, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchCacheIdempotence(t *testing.T) {
	svc := &fakeService{byKeyword: map[string][]Place{
		"padaria": {place("Padoca do Zé")},
	}}
	s := NewSearcher(svc, newMemCache())
	ctx := context.Background()

	first, err := s.Search(ctx, 10, "Centro", []string{"padaria"}, 1000, 10)
	require.NoError(t, err)
	second, err := s.Search(ctx, 10, "Centro", []string{"padaria"}, 1000, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, svc.callCount("padaria"), "fresh cache entry must short-circuit the provider")
}

func TestSearchCacheIsPartitionedByKey(t *testing.T) {
	svc := &fakeService{byKeyword: map[string][]Place{
		"padaria": {place("Padoca do Zé")},
	}}
	s := NewSearcher(svc, newMemCache())
	ctx := context.Background()

	_, err := s.Search(ctx, 10, "Centro", []string{"padaria"}, 1000, 10)
	require.NoError(t, err)
	_, err = s.Search(ctx, 10, "Centro", []string{"padaria"}, 2000, 10)
	require.NoError(t, err)
	_, err = s.Search(ctx, 20, "Centro", []string{"padaria"}, 1000, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, svc.callCount("padaria"), "radius and chat are part of the cache key")
}

func TestSearchNoResults(t *testing.T) {
	svc := &fakeService{byKeyword: map[string][]Place{}}
	s := NewSearcher(svc, newMemCache())

	_, err := s.Search(context.Background(), 10, "Centro", []string{"padaria"}, 1000, 10)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestRouteOptimizesSearchSubset(t *testing.T) {
	svc := &fakeService{byKeyword: map[string][]Place{
		"mercado": {place("A"), place("B"), place("C")},
	}}
	s := NewSearcher(svc, newMemCache())

	places, it, err := s.Route(context.Background(), 10, "Centro", []string{"mercado"}, 1000, 3)
	require.NoError(t, err)
	require.Len(t, places, 3)
	require.NotNil(t, it)
	assert.Equal(t, "C", it.Stops[0].Name, "itinerary must follow the optimizer's order")
}
