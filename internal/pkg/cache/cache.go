package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/internal/pkg/config"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

const paymentKeyPrefix = "payment:session:"

var client *redis.Client

// SetupCache initializes the connection to the Redis-compatible cache server.
// It returns nil when no cache host is configured.
func SetupCache(cfg config.CacheConfig) *redis.Client {
	if !cfg.Enabled() {
		logging.Component("cache").Info("no cache configured, status cache disabled")
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0, // DB 1 holds limiter state
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		logging.Component("cache").WithError(err).Warn("could not connect to cache")
	} else {
		logging.Component("cache").Infof("connected to cache: %s", pong)
	}
	return client
}

// GetClient returns the Redis client instance, nil when the cache is disabled.
func GetClient() *redis.Client {
	return client
}

// PaymentStatusCache stores final payments as JSON keyed by session token.
type PaymentStatusCache struct {
	rdb *redis.Client
}

func NewPaymentStatusCache(rdb *redis.Client) *PaymentStatusCache {
	return &PaymentStatusCache{rdb: rdb}
}

func (c *PaymentStatusCache) GetPayment(ctx context.Context, sessionToken string) (*models.Payment, bool) {
	raw, err := c.rdb.Get(ctx, paymentKeyPrefix+sessionToken).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *PaymentStatusCache) SetPayment(ctx context.Context, payment *models.Payment, ttl time.Duration) error {
	raw, err := json.Marshal(payment)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, paymentKeyPrefix+payment.SessionToken, raw, ttl).Err()
}

// Ping reports cache reachability for health checks.
func Ping(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Ping(ctx).Err()
}
