// Package service implements the order discovery pipeline: fetching the
// technician's available and accepted job lists in parallel, enriching each
// card with service names, normalized phone numbers and distances, and
// streaming late-resolving distances over the event bus.
package service

import (
	"context"
	"sync"

	"fieldtech_backend/internal/events"
	"fieldtech_backend/internal/geo"
	"fieldtech_backend/internal/geocode"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/jobstatus"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/retry"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// transformLimit bounds the per-card enrichment fan-out. Service-name
// lookups dominate the cost; eight in flight keeps refreshes fast without
// stampeding the backend.
const transformLimit = 8

// Lister is the job backend slice the pipeline reads from.
type Lister interface {
	ListAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]jobapi.Offer, error)
	ListMine(ctx context.Context) ([]jobapi.Offer, error)
}

// NameResolver resolves service ids to display names. It never fails; the
// implementation degrades to a fallback name.
type NameResolver interface {
	Resolve(ctx context.Context, serviceID string) string
}

// DistanceSource is the strictly-serial geocoding stream for jobs whose
// records carry no coordinates.
type DistanceSource interface {
	ResolveSequentially(ctx context.Context, jobs []geocode.JobAddress, technician geo.Coordinate, onEach func(offerID, distance string))
}

// JobCard is one enriched list entry.
type JobCard struct {
	Offer       jobapi.Offer
	Status      jobstatus.Status
	ServiceName string
	// Phone is the customer phone in E.164 where parseable, otherwise the
	// raw backend value.
	Phone string
	// Distance is the formatted distance to the technician. Empty means a
	// background resolution is pending; DistanceUnavailable means the
	// address could not be resolved.
	Distance string
}

// Snapshot is one discovery refresh: the available bucket (jobs the
// technician can take) and the accepted bucket (jobs already theirs).
type Snapshot struct {
	Available []JobCard
	Accepted  []JobCard
}

// Pipeline drives discovery refreshes.
type Pipeline struct {
	backend       Lister
	names         NameResolver
	distances     DistanceSource
	retry         *retry.Policy
	bus           events.Bus
	log           *logger.Logger
	radiusKm      float64
	defaultRegion string

	group singleflight.Group

	mu      sync.Mutex
	streams map[uuid.UUID]context.CancelFunc
}

// NewPipeline creates the discovery pipeline. radiusKm bounds the available
// search; defaultRegion is the region hint for phone normalization.
func NewPipeline(backend Lister, names NameResolver, distances DistanceSource, retryPolicy *retry.Policy, bus events.Bus, log *logger.Logger, radiusKm float64, defaultRegion string) *Pipeline {
	return &Pipeline{
		backend:       backend,
		names:         names,
		distances:     distances,
		retry:         retryPolicy,
		bus:           bus,
		log:           log,
		radiusKm:      radiusKm,
		defaultRegion: defaultRegion,
		streams:       make(map[uuid.UUID]context.CancelFunc),
	}
}

// Discover refreshes both job lists. Concurrent calls for the same
// technician share one in-flight refresh instead of stacking requests.
// origin may be nil when the device has no fix; the available bucket is
// then skipped and no distances are computed.
func (p *Pipeline) Discover(ctx context.Context, technicianID uuid.UUID, origin *geo.Coordinate) (Snapshot, error) {
	result, err, _ := p.group.Do(technicianID.String(), func() (interface{}, error) {
		return p.refresh(ctx, technicianID, origin)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return result.(Snapshot), nil
}

// CancelStream stops the technician's background distance stream, if any.
// Called when the session ends or the technician leaves the list screens.
func (p *Pipeline) CancelStream(technicianID uuid.UUID) {
	p.mu.Lock()
	if cancel := p.streams[technicianID]; cancel != nil {
		cancel()
		delete(p.streams, technicianID)
	}
	p.mu.Unlock()
}

func (p *Pipeline) refresh(ctx context.Context, technicianID uuid.UUID, origin *geo.Coordinate) (Snapshot, error) {
	var available, mine []jobapi.Offer

	g, gctx := errgroup.WithContext(ctx)
	if origin != nil {
		g.Go(func() error {
			return p.retry.Do(gctx, func(ctx context.Context) error {
				var err error
				available, err = p.backend.ListAvailable(ctx, origin.Lat, origin.Lng, p.radiusKm)
				return err
			})
		})
	}
	g.Go(func() error {
		return p.retry.Do(gctx, func(ctx context.Context) error {
			var err error
			mine, err = p.backend.ListMine(ctx)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Available: p.bucket(ctx, available, origin, func(s jobstatus.Status) bool { return s == jobstatus.StatusPending }),
		Accepted:  p.bucket(ctx, mine, origin, jobstatus.Status.InAcceptedBucket),
	}

	if origin != nil {
		if pending := pendingAddresses(snapshot); len(pending) > 0 {
			p.startDistanceStream(technicianID, *origin, pending)
		}
	}

	return snapshot, nil
}

// bucket enriches offers concurrently, preserving input order, and keeps
// only those whose normalized status the filter accepts.
func (p *Pipeline) bucket(ctx context.Context, offers []jobapi.Offer, origin *geo.Coordinate, keep func(jobstatus.Status) bool) []JobCard {
	cards := make([]JobCard, len(offers))

	var g errgroup.Group
	g.SetLimit(transformLimit)
	for i, offer := range offers {
		g.Go(func() error {
			cards[i] = p.card(ctx, offer, origin)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	out := make([]JobCard, 0, len(cards))
	for _, card := range cards {
		if keep(card.Status) {
			out = append(out, card)
		}
	}
	return out
}

func (p *Pipeline) card(ctx context.Context, offer jobapi.Offer, origin *geo.Coordinate) JobCard {
	card := JobCard{
		Offer:       offer,
		Status:      jobstatus.Normalize(offer.Status, p.log.UnknownStatus),
		ServiceName: p.names.Resolve(ctx, offer.ServiceID),
		Phone:       normalizePhone(offer.CustomerPhone, p.defaultRegion),
	}
	if origin != nil && offer.Lat != nil && offer.Lng != nil {
		km := geo.Distance(*origin, geo.Coordinate{Lat: *offer.Lat, Lng: *offer.Lng})
		card.Distance = geo.FormatDistance(km)
	}
	return card
}

// pendingAddresses collects jobs that still need a geocoded distance, in
// display order: the available bucket first, then accepted.
func pendingAddresses(snapshot Snapshot) []geocode.JobAddress {
	var pending []geocode.JobAddress
	for _, bucket := range [][]JobCard{snapshot.Available, snapshot.Accepted} {
		for _, card := range bucket {
			if card.Distance == "" && card.Offer.Address != "" {
				pending = append(pending, geocode.JobAddress{OfferID: card.Offer.ID, Address: card.Offer.Address})
			}
		}
	}
	return pending
}

// startDistanceStream replaces the technician's running stream with a new
// one for the latest snapshot. The stream outlives the HTTP request; it is
// cancelled by the next refresh or by CancelStream.
func (p *Pipeline) startDistanceStream(technicianID uuid.UUID, origin geo.Coordinate, jobs []geocode.JobAddress) {
	streamCtx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if prev := p.streams[technicianID]; prev != nil {
		prev()
	}
	p.streams[technicianID] = cancel
	p.mu.Unlock()

	go func() {
		defer cancel()
		p.distances.ResolveSequentially(streamCtx, jobs, origin, func(offerID, distance string) {
			p.bus.Publish(streamCtx, events.JobDistanceResolved{
				BaseEvent:    events.NewBaseEvent(),
				TechnicianID: technicianID,
				OfferID:      offerID,
				Distance:     distance,
			})
		})
	}()
}

func normalizePhone(raw, region string) string {
	if raw == "" {
		return raw
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
