package geocode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldtech_backend/internal/geo"
	"fieldtech_backend/platform/logger"
)

type fakeGeocoder struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]geo.Coordinate
	err     error
	active  int
	maxSeen int
}

func (f *fakeGeocoder) Search(ctx context.Context, address string) ([]geo.Coordinate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, address)
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.results[address], nil
}

func (f *fakeGeocoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestCache(g Geocoder) *Cache {
	return NewCache(g, 0, logger.New("development"))
}

func TestResolveMemoizes(t *testing.T) {
	fake := &fakeGeocoder{results: map[string][]geo.Coordinate{
		"12 Nguyen Hue": {{Lat: 10.77, Lng: 106.70}},
	}}
	cache := newTestCache(fake)

	for i := 0; i < 2; i++ {
		coord, err := cache.Resolve(context.Background(), "12 Nguyen Hue")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if coord == nil || coord.Lat != 10.77 {
			t.Fatalf("unexpected coordinate: %+v", coord)
		}
	}

	if fake.callCount() != 1 {
		t.Errorf("expected exactly one provider call, got %d", fake.callCount())
	}
}

func TestResolveCachesNilResults(t *testing.T) {
	fake := &fakeGeocoder{results: map[string][]geo.Coordinate{}}
	cache := newTestCache(fake)

	for i := 0; i < 3; i++ {
		coord, err := cache.Resolve(context.Background(), "nowhere at all")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if coord != nil {
			t.Fatalf("expected nil for unresolvable address")
		}
	}

	if fake.callCount() != 1 {
		t.Errorf("nil result must be cached; got %d provider calls", fake.callCount())
	}
}

func TestResolveDoesNotCacheProviderErrors(t *testing.T) {
	fake := &fakeGeocoder{err: errors.New("upstream 503")}
	cache := newTestCache(fake)

	for i := 0; i < 2; i++ {
		if _, err := cache.Resolve(context.Background(), "12 Nguyen Hue"); err == nil {
			t.Fatal("expected error from provider")
		}
	}

	if fake.callCount() != 2 {
		t.Errorf("provider errors must not be cached; got %d calls", fake.callCount())
	}
}

func TestResolveSequentiallyVisitsInOrderWithoutConcurrency(t *testing.T) {
	fake := &fakeGeocoder{results: map[string][]geo.Coordinate{
		"addr-a": {{Lat: 10.78, Lng: 106.70}},
		"addr-c": {{Lat: 10.80, Lng: 106.72}},
	}}
	cache := newTestCache(fake)

	var mu sync.Mutex
	var order []string
	distances := map[string]string{}

	cache.ResolveSequentially(context.Background(),
		[]JobAddress{
			{OfferID: "ofr-a", Address: "addr-a"},
			{OfferID: "ofr-b", Address: "addr-b"},
			{OfferID: "ofr-c", Address: "addr-c"},
		},
		geo.Coordinate{Lat: 10.7769, Lng: 106.7009},
		func(offerID, distance string) {
			mu.Lock()
			order = append(order, offerID)
			distances[offerID] = distance
			mu.Unlock()
		},
	)

	if len(order) != 3 || order[0] != "ofr-a" || order[1] != "ofr-b" || order[2] != "ofr-c" {
		t.Fatalf("results out of input order: %v", order)
	}
	if distances["ofr-b"] != DistanceUnavailable {
		t.Errorf("unresolvable job should report %q, got %q", DistanceUnavailable, distances["ofr-b"])
	}
	if distances["ofr-a"] == DistanceUnavailable || distances["ofr-c"] == DistanceUnavailable {
		t.Errorf("resolvable jobs should have formatted distances: %v", distances)
	}
	if fake.maxSeen > 1 {
		t.Errorf("geocode calls ran concurrently (max in flight %d)", fake.maxSeen)
	}
}

func TestResolveSequentiallyStopsOnCancel(t *testing.T) {
	fake := &fakeGeocoder{results: map[string][]geo.Coordinate{}}
	cache := newTestCache(fake)

	ctx, cancel := context.WithCancel(context.Background())

	seen := 0
	cache.ResolveSequentially(ctx,
		[]JobAddress{
			{OfferID: "ofr-a", Address: "addr-a"},
			{OfferID: "ofr-b", Address: "addr-b"},
			{OfferID: "ofr-c", Address: "addr-c"},
		},
		geo.Coordinate{},
		func(offerID, distance string) {
			seen++
			cancel()
		},
	)

	if seen != 1 {
		t.Errorf("stream should stop after cancellation, processed %d", seen)
	}
}
