// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package cache holds the NATS JetStream key-value cache for computed
// dashboard statistics.
package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// KVStoreNameDashboardStats is the bucket holding cached dashboard stats.
const KVStoreNameDashboardStats = "community-dashboard-stats"

// keyPrefixDashboard prefixes every dashboard stats key.
const keyPrefixDashboard = "dashboard"

const tracerName = "github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/cache"

// INatsKeyValue is the subset of jetstream.KeyValue the stats cache needs.
type INatsKeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Create(ctx context.Context, key string, value []byte, opts ...jetstream.KVCreateOpt) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
}

// NatsStatsCache implements domain.StatsCache on a NATS KV bucket.
// Entries older than TTL are treated as misses even if the bucket has not
// expired them yet.
type NatsStatsCache struct {
	KeyValue INatsKeyValue
	TTL      time.Duration
	Now      func() time.Time
}

// NewNatsStatsCache creates a stats cache over the given bucket.
func NewNatsStatsCache(kv INatsKeyValue, ttl time.Duration) *NatsStatsCache {
	return &NatsStatsCache{
		KeyValue: kv,
		TTL:      ttl,
		Now:      time.Now,
	}
}

// StatsKey builds the bucket key for a community. The uid is encoded so any
// identifier maps onto the characters NATS allows in keys.
func StatsKey(communityUID string) string {
	return fmt.Sprintf("%s.%s", keyPrefixDashboard, base64.RawURLEncoding.EncodeToString([]byte(communityUID)))
}

func (c *NatsStatsCache) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "nats"),
			attribute.String("db.operation", op),
			attribute.String("db.nats.kv.bucket", KVStoreNameDashboardStats),
			attribute.String("db.nats.kv.key", key),
		),
	)
}

// Get returns the cached stats for a community, or a NotFound error on a
// miss, a stale entry or an invalidation marker. The entry revision is
// returned with misses so a later Put can be made conditional on it.
func (c *NatsStatsCache) Get(ctx context.Context, communityUID string) (*models.DashboardStats, uint64, error) {
	key := StatsKey(communityUID)
	ctx, span := c.startSpan(ctx, "get", key)
	defer span.End()

	entry, err := c.KeyValue.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, 0, domain.NewNotFoundError("dashboard stats not cached")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, domain.NewUnavailableError("failed to read dashboard stats cache", err)
	}

	revision := entry.Revision()
	span.SetAttributes(attribute.Int64("db.nats.kv.revision", int64(revision)))

	if len(entry.Value()) == 0 {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, revision, domain.NewNotFoundError("dashboard stats invalidated")
	}

	if c.TTL > 0 && c.now().Sub(entry.Created()) > c.TTL {
		span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Bool("cache.stale", true))
		return nil, revision, domain.NewNotFoundError("dashboard stats expired")
	}

	var stats models.DashboardStats
	if err := msgpack.Unmarshal(entry.Value(), &stats); err != nil {
		// A corrupt entry behaves like a miss; the next Put overwrites it.
		slog.WarnContext(ctx, "discarding undecodable dashboard stats", logging.ErrKey, err, "key", key)
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, revision, domain.NewNotFoundError("dashboard stats not cached", err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &stats, revision, nil
}

// Put stores the stats under their community's key if the entry is still at
// revision. Revision 0 means the key did not exist when it was read.
func (c *NatsStatsCache) Put(ctx context.Context, stats *models.DashboardStats, revision uint64) error {
	if stats == nil || stats.CommunityUID == "" {
		return domain.NewValidationError("dashboard stats need a community uid")
	}

	key := StatsKey(stats.CommunityUID)
	ctx, span := c.startSpan(ctx, "update", key)
	defer span.End()
	span.SetAttributes(attribute.Int64("db.nats.kv.revision", int64(revision)))

	data, err := msgpack.Marshal(stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NewInternalError("failed to encode dashboard stats", err)
	}

	if revision == 0 {
		_, err = c.KeyValue.Create(ctx, key, data)
	} else {
		_, err = c.KeyValue.Update(ctx, key, data, revision)
	}
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) || strings.Contains(err.Error(), "wrong last sequence") {
			span.SetStatus(codes.Error, "conflict")
			return domain.NewConflictError("dashboard stats changed since they were read", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NewUnavailableError("failed to write dashboard stats cache", err)
	}
	return nil
}

// Invalidate replaces the cached stats of a community with an empty marker.
// Writing rather than deleting moves the revision forward, which turns any
// Put computed from older data into a conflict.
func (c *NatsStatsCache) Invalidate(ctx context.Context, communityUID string) error {
	key := StatsKey(communityUID)
	ctx, span := c.startSpan(ctx, "put", key)
	defer span.End()

	if _, err := c.KeyValue.Put(ctx, key, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.NewUnavailableError("failed to invalidate dashboard stats cache", err)
	}
	return nil
}

func (c *NatsStatsCache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
