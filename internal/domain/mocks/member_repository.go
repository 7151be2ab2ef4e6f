// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

// MockMemberRepository implements domain.MemberRepository for testing
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Get(ctx context.Context, memberUID string) (*models.Member, error) {
	args := m.Called(ctx, memberUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) UpdateState(ctx context.Context, memberUID string, state models.MemberState) error {
	args := m.Called(ctx, memberUID, state)
	return args.Error(0)
}

func (m *MockMemberRepository) ListByCommunity(ctx context.Context, communityUID string) ([]*models.Member, error) {
	args := m.Called(ctx, communityUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMemberRepository) BelongsToCommunity(ctx context.Context, communityUID, memberUID string) (bool, error) {
	args := m.Called(ctx, communityUID, memberUID)
	return args.Bool(0), args.Error(1)
}
