package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// reserveAttempts bounds the SETNX/GET loop when the key expires in between.
const reserveAttempts = 3

// idempotencyBackend is the subset of *redis.Client the store uses.
type idempotencyBackend interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// submitRecord is what a key maps to. It is pending until VisitRequestID is
// set. Fingerprint ties the key to one request body.
type submitRecord struct {
	Fingerprint    string `json:"fingerprint"`
	VisitRequestID string `json:"visitRequestId,omitempty"`
	Notified       bool   `json:"notified,omitempty"`
}

func (r submitRecord) pending() bool {
	return r.VisitRequestID == ""
}

// idempotencyStore remembers the outcome of a submit per Idempotency-Key.
// A key is reserved with a pending record that lives pendingTTL, then
// overwritten with the outcome for ttl, or released when the submit fails.
// A pending record left behind by a crash or a failed complete expires on
// its own, so retries are only blocked for pendingTTL.
type idempotencyStore struct {
	client     idempotencyBackend
	ttl        time.Duration
	pendingTTL time.Duration
}

func newIdempotencyStore(client idempotencyBackend, ttl, pendingTTL time.Duration) *idempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = time.Minute
	}
	if pendingTTL > ttl {
		pendingTTL = ttl
	}
	return &idempotencyStore{client: client, ttl: ttl, pendingTTL: pendingTTL}
}

// idempotencyKey scopes the client-supplied key to the caller and hashes it
// so its length and characters never reach the redis keyspace.
func idempotencyKey(subject, key string) string {
	sum := sha256.Sum256([]byte(subject + "\x00" + key))
	return fmt.Sprintf("visitors:idempotency:submit:%s", base64.RawURLEncoding.EncodeToString(sum[:]))
}

func submitFingerprint(req submitVisitRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// reserve returns reserved=true when the caller now owns key. Otherwise it
// returns the record already stored under it.
func (i *idempotencyStore) reserve(ctx context.Context, key, fingerprint string) (submitRecord, bool, error) {
	pending, err := json.Marshal(submitRecord{Fingerprint: fingerprint})
	if err != nil {
		return submitRecord{}, false, err
	}
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		ok, err := i.client.SetNX(ctx, key, pending, i.pendingTTL).Result()
		if err != nil {
			return submitRecord{}, false, err
		}
		if ok {
			return submitRecord{}, true, nil
		}
		raw, err := i.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return submitRecord{}, false, err
		}
		var record submitRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return submitRecord{}, false, fmt.Errorf("decode idempotency record: %w", err)
		}
		return record, false, nil
	}
	return submitRecord{}, false, errors.New("idempotency key kept expiring during reserve")
}

func (i *idempotencyStore) complete(ctx context.Context, key string, record submitRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return i.client.Set(ctx, key, payload, i.ttl).Err()
}

func (i *idempotencyStore) release(ctx context.Context, key string) {
	_ = i.client.Del(ctx, key).Err()
}
