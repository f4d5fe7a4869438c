// Package cache holds the redis read-through cache for loan offer reads.
// The API runs fine without it; a nil *Offers disables caching entirely.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Offers struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOffers(cfg Config) *Offers {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Offers{rdb: rdb, ttl: cfg.TTL}
}

func (c *Offers) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Offers) Close() error {
	return c.rdb.Close()
}

func key(id string) string {
	return "loanoffer:" + id
}

// Get is best-effort: any redis or decode failure reads as a miss.
func (c *Offers) Get(ctx context.Context, id string) (loanoffer.LoanOffer, bool) {
	raw, err := c.rdb.Get(ctx, key(id)).Bytes()

	if err != nil {
		return loanoffer.LoanOffer{}, false
	}

	var o loanoffer.LoanOffer

	if err := json.Unmarshal(raw, &o); err != nil {
		return loanoffer.LoanOffer{}, false
	}

	return o, true
}

func (c *Offers) Set(ctx context.Context, o loanoffer.LoanOffer) {
	raw, err := json.Marshal(o)

	if err != nil {
		return
	}

	_ = c.rdb.Set(ctx, key(o.ID), raw, c.ttl).Err()
}

func (c *Offers) Invalidate(ctx context.Context, id string) {
	_ = c.rdb.Del(ctx, key(id)).Err()
}
