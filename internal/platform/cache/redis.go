package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPingTimeout = 5 * time.Second
	defaultBackoff     = 500 * time.Millisecond
)

// Options locates the Redis instance shared by host sessions, the catalog
// snapshot cache and the job queue.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Attempts bounds PING tries while Redis is still starting. Zero means one.
	Attempts int
	// Backoff is the wait before the second try and grows linearly.
	Backoff time.Duration
}

// New connects to Redis and returns once it answers PING.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("platform/cache: redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	attempts := max(opts.Attempts, 1)
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var err error
	for i := 1; ; i++ {
		if err = ping(ctx, client); err == nil {
			return client, nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(backoff * time.Duration(i)):
			continue
		}
		break
	}
	_ = client.Close()
	return nil, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
}

func ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
