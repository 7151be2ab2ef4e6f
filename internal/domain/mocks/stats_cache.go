// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

// MockStatsCache implements domain.StatsCache for testing
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context, communityUID string) (*models.DashboardStats, uint64, error) {
	args := m.Called(ctx, communityUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.DashboardStats), args.Get(1).(uint64), args.Error(2)
}

func (m *MockStatsCache) Put(ctx context.Context, stats *models.DashboardStats, revision uint64) error {
	args := m.Called(ctx, stats, revision)
	return args.Error(0)
}

func (m *MockStatsCache) Invalidate(ctx context.Context, communityUID string) error {
	args := m.Called(ctx, communityUID)
	return args.Error(0)
}
