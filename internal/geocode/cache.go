package geocode

import (
	"context"
	"sync"
	"time"

	"fieldtech_backend/internal/geo"
	"fieldtech_backend/platform/logger"

	"golang.org/x/time/rate"
)

// DistanceUnavailable is reported for jobs whose address could not be
// resolved to coordinates.
const DistanceUnavailable = "N/A"

// Cache memoizes geocoding results per exact address string for the process
// lifetime. A nil result (unresolvable address) is cached too, so repeat
// failures never hit the provider again. Lookups are paced by a limiter
// honoring the provider's minimum inter-request interval.
type Cache struct {
	geocoder Geocoder
	limiter  *rate.Limiter
	log      *logger.Logger

	mu      sync.Mutex
	results map[string]*geo.Coordinate
}

// NewCache creates a cache over the given geocoder. minInterval is the
// provider's required gap between requests.
func NewCache(geocoder Geocoder, minInterval time.Duration, log *logger.Logger) *Cache {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Cache{
		geocoder: geocoder,
		limiter:  rate.NewLimiter(limit, 1),
		log:      log,
		results:  make(map[string]*geo.Coordinate),
	}
}

// Resolve returns the coordinates for an address, or nil when the address
// cannot be resolved. Identical inputs perform exactly one provider call.
func (c *Cache) Resolve(ctx context.Context, address string) (*geo.Coordinate, error) {
	c.mu.Lock()
	if cached, ok := c.results[address]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	coords, err := c.geocoder.Search(ctx, address)
	if err != nil {
		// Provider errors are not cached: the address may resolve once
		// the provider recovers.
		return nil, err
	}

	var result *geo.Coordinate
	if len(coords) > 0 {
		first := coords[0]
		result = &first
	} else {
		c.log.GeocodeFailure(address, errNoResults)
	}

	c.mu.Lock()
	c.results[address] = result
	c.mu.Unlock()

	return result, nil
}

// JobAddress pairs a job identifier with the address to resolve for it.
type JobAddress struct {
	OfferID string
	Address string
}

// ResolveSequentially visits jobs one at a time, in input order, awaiting
// each lookup fully before starting the next. The provider's rate limit is
// a hard constraint; this path must never be parallelized. onEach receives
// the formatted distance, or DistanceUnavailable when resolution failed.
// The walk stops when ctx is cancelled.
func (c *Cache) ResolveSequentially(ctx context.Context, jobs []JobAddress, technician geo.Coordinate, onEach func(offerID, distance string)) {
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}

		coord, err := c.Resolve(ctx, job.Address)
		if err != nil || coord == nil {
			onEach(job.OfferID, DistanceUnavailable)
			continue
		}

		km := geo.Distance(technician, *coord)
		onEach(job.OfferID, geo.FormatDistance(km))
	}
}

var errNoResults = noResultsError{}

type noResultsError struct{}

func (noResultsError) Error() string { return "no geocoding results" }
