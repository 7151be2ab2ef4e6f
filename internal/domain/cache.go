// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
)

// StatsCache stores computed dashboard statistics per community.
//
// Every write bumps the entry revision. Put only succeeds against the
// revision observed by the Get that missed, so stats computed before an
// Invalidate are never stored over it.
type StatsCache interface {
	// Get returns a NotFound error on a cache miss. The revision is returned
	// on hits and misses alike.
	Get(ctx context.Context, communityUID string) (*models.DashboardStats, uint64, error)
	// Put returns a Conflict error when the entry moved past revision.
	Put(ctx context.Context, stats *models.DashboardStats, revision uint64) error
	Invalidate(ctx context.Context, communityUID string) error
}
