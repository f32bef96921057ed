// Package idempotency provides the at-most-once guard for platform jobs.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"app/internal/model"
)

const keyPrefix = "publish:done:"

// Key derives the deterministic idempotency key for a job. The same
// logical job always yields the same key; differing platforms yield
// differing keys.
func Key(job model.PlatformJob) string {
	identity := job.Payload.CampaignID
	if identity == "" {
		identity = job.Payload.ContentID
	}
	if identity == "" && job.Payload.Content != nil {
		identity = job.Payload.Content.Title
	}
	if identity == "" {
		identity = "auto"
	}

	platform := job.Payload.Platform
	if platform == "" {
		platform = "multi"
	}

	return fmt.Sprintf("%s:%s:%s", job.Type, identity, platform)
}

// Guard checks and marks processed jobs against a shared Redis cache.
// A nil client degrades to fail-open: every job looks unprocessed and
// the at-most-once guarantee rests on the queue's visibility window.
type Guard struct {
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewGuard(cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *Guard {
	return &Guard{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "idempotency").Logger(),
	}
}

// AlreadyProcessed reports whether the key was marked by a previous run.
// Cache errors are treated as unprocessed; blocking publishing on a cache
// outage would be worse than risking a duplicate.
func (g *Guard) AlreadyProcessed(ctx context.Context, key string) bool {
	if g.cache == nil {
		g.logger.Warn().Str("key", key).Msg("No idempotency cache configured; treating job as unprocessed")
		return false
	}
	exists, err := g.cache.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("Idempotency lookup failed; treating job as unprocessed")
		return false
	}
	return exists > 0
}

// MarkProcessed records the key with the configured TTL. Failures are
// logged and swallowed: the job already ran, so failing the pipeline here
// only trades a possible future duplicate for a certain redelivery.
func (g *Guard) MarkProcessed(ctx context.Context, key string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Set(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Err(); err != nil {
		g.logger.Error().Err(err).Str("key", key).Msg("Failed to mark job processed")
	}
}
