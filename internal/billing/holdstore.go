package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const holdKeyPrefix = "pos:terminal:"

// HoldStore parks engine state (active draft + hold ring) in Redis
// between requests, keyed by terminal. The Redis copy is authoritative:
// a terminal's state is checked out at the start of a request and checked
// back in after the engine has run.
type HoldStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHoldStore constructs a HoldStore. ttl bounds how long an abandoned
// terminal keeps its parked holds.
func NewHoldStore(client *redis.Client, ttl time.Duration) *HoldStore {
	return &HoldStore{client: client, ttl: ttl}
}

// Load fetches the parked state for a terminal. It returns nil without
// error when the terminal has no parked state yet.
func (s *HoldStore) Load(ctx context.Context, terminalID string) (*State, error) {
	payload, err := s.client.Get(ctx, holdKey(terminalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("holdstore: get: %w", err)
	}
	var st State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("holdstore: decode: %w", err)
	}
	return &st, nil
}

// Save parks the state for a terminal, refreshing its TTL.
func (s *HoldStore) Save(ctx context.Context, terminalID string, st State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("holdstore: encode: %w", err)
	}
	if err := s.client.Set(ctx, holdKey(terminalID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("holdstore: set: %w", err)
	}
	return nil
}

// Delete drops a terminal's parked state.
func (s *HoldStore) Delete(ctx context.Context, terminalID string) error {
	if err := s.client.Del(ctx, holdKey(terminalID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("holdstore: del: %w", err)
	}
	return nil
}

// SweepStale scans parked terminal states and deletes those not touched
// within maxIdle. Returns the terminal IDs it removed. Run from the
// worker's cron; Redis TTL is the backstop, this reclaims earlier.
func (s *HoldStore) SweepStale(ctx context.Context, maxIdle time.Duration) ([]string, error) {
	var removed []string
	cutoff := time.Now().Add(-maxIdle)

	iter := s.client.Scan(ctx, 0, holdKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		payload, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return removed, fmt.Errorf("holdstore: sweep get: %w", err)
		}
		var st State
		if err := json.Unmarshal(payload, &st); err != nil {
			// Unreadable payloads are reclaimed too.
			_ = s.client.Del(ctx, key).Err()
			removed = append(removed, key[len(holdKeyPrefix):])
			continue
		}
		if st.UpdatedAt.Before(cutoff) {
			if err := s.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
				return removed, fmt.Errorf("holdstore: sweep del: %w", err)
			}
			removed = append(removed, key[len(holdKeyPrefix):])
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("holdstore: scan: %w", err)
	}
	return removed, nil
}

func holdKey(terminalID string) string {
	return holdKeyPrefix + terminalID
}
