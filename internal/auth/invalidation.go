package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// InvalidationChannel carries derived credential keys whose cache entries
// must be evicted on every API instance (logout, credential revocation).
const InvalidationChannel = "auth:cache:invalidate"

// PublishInvalidation broadcasts an eviction for a raw credential.
// Only the derived key crosses the wire; the raw secret never does.
func PublishInvalidation(ctx context.Context, rdb *redis.Client, credential string) error {
	return rdb.Publish(ctx, InvalidationChannel, CredentialKey(credential)).Err()
}

// Invalidator subscribes to the invalidation channel and evicts published
// keys from the local identity cache. One Invalidator runs per process.
type Invalidator struct {
	rdb   *redis.Client
	cache *IdentityCache
	log   *slog.Logger
}

func NewInvalidator(rdb *redis.Client, cache *IdentityCache, log *slog.Logger) *Invalidator {
	if log == nil {
		log = slog.Default()
	}
	return &Invalidator{rdb: rdb, cache: cache, log: log}
}

// Run blocks until ctx is canceled, resubscribing after connection loss.
// A dropped subscription only delays evictions; TTL expiry still bounds how
// long a revoked credential can be served from cache.
func (i *Invalidator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := i.rdb.Subscribe(ctx, InvalidationChannel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			i.log.Error("cache invalidation subscribe failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		ch := pubsub.Channel()

	recv:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv // channel closed, resubscribe
				}
				if msg.Payload == "" {
					continue
				}
				if i.cache.InvalidateKey(msg.Payload) {
					i.log.Debug("cache entry invalidated via pubsub")
				}
			}
		}

		_ = pubsub.Close()
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
