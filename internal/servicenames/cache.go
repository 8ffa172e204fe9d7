// Package servicenames resolves service identifiers to display names.
// A flaky name-lookup backend must never block job-list rendering, so the
// cache carries a per-call timeout and a circuit breaker.
package servicenames

import (
	"context"
	"sync"
	"time"

	"fieldtech_backend/platform/logger"
)

// FallbackName is served once the breaker has tripped or a lookup fails.
const FallbackName = "Repair service"

const (
	lookupTimeout = 3 * time.Second
	// breakerThreshold is the number of distinct failing service ids that
	// trips the breaker for the remainder of the session.
	breakerThreshold = 3
)

// Resolver fetches a service's display name from the backend.
type Resolver interface {
	GetServiceName(ctx context.Context, serviceID string) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, serviceID string) (string, error)

// GetServiceName calls the underlying function.
func (f ResolverFunc) GetServiceName(ctx context.Context, serviceID string) (string, error) {
	return f(ctx, serviceID)
}

// Cache memoizes service-name lookups for the process lifetime. After
// breakerThreshold distinct service ids fail (error or timeout), all further
// lookups short-circuit to FallbackName without touching the network.
type Cache struct {
	resolver Resolver
	log      *logger.Logger

	mu      sync.Mutex
	names   map[string]string
	failed  map[string]bool
	tripped bool
}

// NewCache creates a service-name cache over the given resolver.
func NewCache(resolver Resolver, log *logger.Logger) *Cache {
	return &Cache{
		resolver: resolver,
		log:      log,
		names:    make(map[string]string),
		failed:   make(map[string]bool),
	}
}

// Resolve returns the display name for a service id. Failures degrade to
// FallbackName; they are never returned as errors, since a missing name
// must not break a job listing.
func (c *Cache) Resolve(ctx context.Context, serviceID string) string {
	if serviceID == "" {
		return FallbackName
	}

	c.mu.Lock()
	if name, ok := c.names[serviceID]; ok {
		c.mu.Unlock()
		return name
	}
	if c.tripped {
		c.mu.Unlock()
		return FallbackName
	}
	c.mu.Unlock()

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	name, err := c.resolver.GetServiceName(lookupCtx, serviceID)
	if err != nil || name == "" {
		c.recordFailure(serviceID, err)
		return FallbackName
	}

	c.mu.Lock()
	c.names[serviceID] = name
	c.mu.Unlock()
	return name
}

func (c *Cache) recordFailure(serviceID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failed[serviceID] = true
	if !c.tripped && len(c.failed) >= breakerThreshold {
		c.tripped = true
		c.log.Warn("service name breaker tripped",
			"distinct_failures", len(c.failed),
		)
	}
	if err != nil {
		c.log.Debug("service name lookup failed",
			"service_id", serviceID,
			"error", err.Error(),
		)
	}
}

// Tripped reports whether the breaker has opened. Exposed for tests and
// health diagnostics.
func (c *Cache) Tripped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tripped
}
