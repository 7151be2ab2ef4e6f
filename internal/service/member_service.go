// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
)

// MemberService manages community memberships.
type MemberService struct {
	Store      domain.Store
	StatsCache domain.StatsCache
	Config     ServiceConfig
}

// NewMemberService creates a new MemberService.
func NewMemberService(store domain.Store, statsCache domain.StatsCache, config ServiceConfig) *MemberService {
	return &MemberService{
		Store:      store,
		StatsCache: statsCache,
		Config:     config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MemberService) ServiceReady() bool {
	return s.Store != nil
}

// AddMember adds a member to a community. State defaults to active and the
// join date to now.
func (s *MemberService) AddMember(ctx context.Context, communityUID string, payload *models.MemberCreate) (*models.Member, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}
	if communityUID == "" {
		return nil, domain.NewValidationError("community uid is required")
	}
	if payload == nil {
		return nil, domain.NewValidationError("member payload is required")
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	now := s.Config.now()
	member := &models.Member{
		UID:          uuid.New().String(),
		CommunityUID: communityUID,
		DisplayName:  payload.DisplayName,
		State:        payload.State,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if member.State == "" {
		member.State = models.MemberStateActive
	}
	if payload.JoinedAt != nil {
		member.JoinedAt = payload.JoinedAt.UTC()
	}

	if err := s.Store.Members().Create(ctx, member); err != nil {
		return nil, err
	}
	invalidateStats(ctx, s.StatsCache, communityUID)

	slog.DebugContext(ctx, "added member", "member_uid", member.UID, "community_uid", communityUID)
	return member, nil
}

// UpdateMemberState changes the membership state of a member.
func (s *MemberService) UpdateMemberState(ctx context.Context, memberUID string, state models.MemberState) (*models.Member, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}
	if !slices.Contains(models.MemberStates, state) {
		return nil, domain.NewValidationError("state must be one of active, inactive, pending, left")
	}

	ctx = logging.AppendCtx(ctx, slog.String("member_uid", memberUID))

	if err := s.Store.Members().UpdateState(ctx, memberUID, state); err != nil {
		return nil, err
	}
	member, err := s.Store.Members().Get(ctx, memberUID)
	if err != nil {
		return nil, err
	}
	invalidateStats(ctx, s.StatsCache, member.CommunityUID)

	return member, nil
}

// ListMembers returns the members of a community by join date.
func (s *MemberService) ListMembers(ctx context.Context, communityUID string) ([]*models.Member, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}
	return s.Store.Members().ListByCommunity(ctx, communityUID)
}
