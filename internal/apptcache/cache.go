// Package apptcache persists the fallback pointer from an offer to its
// appointment record. The pointer exists because the backend's offer record
// can lag behind appointment creation; it is the only client-side state that
// survives a session. Keys are scoped by technician identity to prevent
// cross-account leakage on shared devices.
package apptcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store reads and writes appointment pointers in redis.
type Store struct {
	client *redis.Client
}

// New creates a pointer store over an existing redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// NewFromURL connects to redis and returns a pointer store.
func NewFromURL(redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{client: redis.NewClient(opt)}, nil
}

func key(technicianID uuid.UUID, offerID string) string {
	return fmt.Sprintf("appt_ptr:%s:%s", technicianID, offerID)
}

// Get returns the cached appointment id for (offerID, technicianID), or
// empty when no pointer exists.
func (s *Store) Get(ctx context.Context, technicianID uuid.UUID, offerID string) (string, error) {
	value, err := s.client.Get(ctx, key(technicianID, offerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get appointment pointer: %w", err)
	}
	return value, nil
}

// Set stores the pointer. Pointers do not expire; they are purged explicitly
// when the backend declares them stale.
func (s *Store) Set(ctx context.Context, technicianID uuid.UUID, offerID, appointmentID string) error {
	if err := s.client.Set(ctx, key(technicianID, offerID), appointmentID, 0).Err(); err != nil {
		return fmt.Errorf("set appointment pointer: %w", err)
	}
	return nil
}

// Delete removes a stale pointer.
func (s *Store) Delete(ctx context.Context, technicianID uuid.UUID, offerID string) error {
	if err := s.client.Del(ctx, key(technicianID, offerID)).Err(); err != nil {
		return fmt.Errorf("delete appointment pointer: %w", err)
	}
	return nil
}

// Ping verifies the redis connection for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
