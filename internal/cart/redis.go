package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// Redis stores each cart as a hash "<prefix>:<user>:<cafe>" whose fields
// are menu item ids and whose values are JSON encoded lines. Carts expire
// TTL after their last change.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

// redisLine adds the insertion sequence used to keep cart order.
type redisLine struct {
	model.OrderLine
	Seq int64 `json:"seq"`
}

func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "cart"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(userID, cafeID string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, userID, cafeID)
}

// Add merges the line inside an optimistic WATCH transaction.
func (r *Redis) Add(ctx context.Context, userID string, line model.OrderLine) error {
	if err := validateLine(userID, line); err != nil {
		return err
	}
	key := r.key(userID, line.CafeID)
	txf := func(tx *redis.Tx) error {
		entry := redisLine{OrderLine: line, Seq: time.Now().UnixNano()}
		raw, err := tx.HGet(ctx, key, line.MenuItemID).Bytes()
		switch {
		case err == nil:
			var prev redisLine
			if err := json.Unmarshal(raw, &prev); err != nil {
				return fmt.Errorf("decode cart line: %w", err)
			}
			entry.Quantity += prev.Quantity
			entry.Seq = prev.Seq
		case !errors.Is(err, redis.Nil):
			return err
		}
		body, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, line.MenuItemID, body)
			p.Expire(ctx, key, r.ttl)
			return nil
		})
		return err
	}
	for i := 0; i < 5; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return apperr.ErrConflict
}

func (r *Redis) SetQuantity(ctx context.Context, userID, cafeID, menuItemID string, qty int) error {
	if qty < 0 {
		return apperr.Invalid("quantity", "must not be negative")
	}
	if qty == 0 {
		return r.Remove(ctx, userID, cafeID, menuItemID)
	}
	key := r.key(userID, cafeID)
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, menuItemID).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		var entry redisLine
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("decode cart line: %w", err)
		}
		entry.Quantity = qty
		body, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, menuItemID, body)
			p.Expire(ctx, key, r.ttl)
			return nil
		})
		return err
	}, key)
}

func (r *Redis) Remove(ctx context.Context, userID, cafeID, menuItemID string) error {
	return r.rdb.HDel(ctx, r.key(userID, cafeID), menuItemID).Err()
}

func (r *Redis) Lines(ctx context.Context, userID, cafeID string) ([]model.OrderLine, error) {
	m, err := r.rdb.HGetAll(ctx, r.key(userID, cafeID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeLines(m)
}

func decodeLines(m map[string]string) ([]model.OrderLine, error) {
	entries := make([]redisLine, 0, len(m))
	for field, raw := range m {
		var e redisLine
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode cart line %s: %w", field, err)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Seq != entries[j].Seq {
			return entries[i].Seq < entries[j].Seq
		}
		return entries[i].MenuItemID < entries[j].MenuItemID
	})
	out := make([]model.OrderLine, len(entries))
	for i, e := range entries {
		out[i] = e.OrderLine
	}
	return out, nil
}

func (r *Redis) ClearCafe(ctx context.Context, userID, cafeID string) error {
	return r.rdb.Del(ctx, r.key(userID, cafeID)).Err()
}
