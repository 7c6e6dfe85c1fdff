// Package persistence implements the engine's optional key-value state
// store: order and position records keyed by (kind, id), laid out with
// the same Record wire format internal/serialization uses for commands
// and events, recovered by replaying records in ascending timestamp_ns.
//
// Grounded on rate-limiter/gateway/ratelimiter's TokenBucket: same
// redis.Cmdable-typed client field (works against *redis.Client or a
// cluster client without the caller needing to care), same
// context-scoped call shape. Persistence here is plain SET/ZADD rather
// than the rate limiter's Lua script, since there is no read-modify-
// write race to close: each record is written whole by the single
// engine run loop that owns it.
package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rishav/algo-engine/internal/apperrors"
)

// Kind discriminates the record types this store persists.
type Kind string

const (
	KindOrder    Kind = "order"
	KindPosition Kind = "position"
)

const keyPrefix = "algo-engine:"

// Store persists (kind, id) -> record bytes in Redis, and tracks an
// ascending-timestamp index per kind so Recover can replay in order.
type Store struct {
	client redis.Cmdable
}

// New wraps an existing redis client or cluster client. The caller owns
// connection lifecycle (Ping, Close); Store only issues commands.
func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

func recordKey(kind Kind, id string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, kind, id)
}

func indexKey(kind Kind) string {
	return fmt.Sprintf("%s%s:index", keyPrefix, kind)
}

// Put writes a record's encoded bytes under (kind, id) and adds it to
// the kind's replay index at score timestampNs, so Recover encounters
// it in the right order even if two records share a timestamp (ties
// broken by Redis's stable sort of equal scores by member).
func (s *Store) Put(ctx context.Context, kind Kind, id string, timestampNs int64, data []byte) error {
	if err := s.client.Set(ctx, recordKey(kind, id), data, 0).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "persist record", err)
	}
	if err := s.client.ZAdd(ctx, indexKey(kind), redis.Z{Score: float64(timestampNs), Member: id}).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "index record", err)
	}
	return nil
}

// Delete removes a record and its index entry, e.g. once an order
// reaches a terminal state and no longer needs recovery replay.
func (s *Store) Delete(ctx context.Context, kind Kind, id string) error {
	if err := s.client.Del(ctx, recordKey(kind, id)).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "delete record", err)
	}
	if err := s.client.ZRem(ctx, indexKey(kind), id).Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, "unindex record", err)
	}
	return nil
}

// Get fetches one record's bytes. The second return is false if no
// record exists at (kind, id).
func (s *Store) Get(ctx context.Context, kind Kind, id string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, recordKey(kind, id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindPersistence, "get record", err)
	}
	return data, true, nil
}

// Record pairs a stored id with its encoded bytes, returned by Recover
// in ascending timestamp_ns order.
type Record struct {
	ID   string
	Data []byte
}

// Recover returns every record of kind in ascending timestamp_ns order,
// ready for the caller to decode and replay into engine state.
func (s *Store) Recover(ctx context.Context, kind Kind) ([]Record, error) {
	ids, err := s.client.ZRangeByScore(ctx, indexKey(kind), &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "range replay index", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(kind, id)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, "mget replay records", err)
	}

	out := make([]Record, 0, len(ids))
	for i, v := range values {
		if v == nil {
			continue // record expired or was deleted between ZRANGE and MGET
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, Record{ID: ids[i], Data: []byte(s)})
	}
	// ZRANGEBYSCORE already returns ascending order; a record dropped
	// from values above does not change the relative order of the rest.
	return out, nil
}
