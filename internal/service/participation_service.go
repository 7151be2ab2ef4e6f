// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"golang.org/x/sync/errgroup"
)

// ParticipationService derives attendance rates, engagement buckets and
// dashboard aggregates. It never writes meetings or attendance.
type ParticipationService struct {
	Store domain.Store
	// StatsCache is optional.
	StatsCache domain.StatsCache
	Config     ServiceConfig
}

// NewParticipationService creates a new ParticipationService.
func NewParticipationService(store domain.Store, statsCache domain.StatsCache, config ServiceConfig) *ParticipationService {
	return &ParticipationService{
		Store:      store,
		StatsCache: statsCache,
		Config:     config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *ParticipationService) ServiceReady() bool {
	return s.Store != nil
}

// AttendanceRate is attended as a percentage of total, 0 when total is 0.
func AttendanceRate(attended, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

// ClassifyFrequency buckets an attendance rate.
func ClassifyFrequency(rate float64) models.FrequencyBucket {
	switch {
	case rate >= constants.HighFrequencyThreshold:
		return models.FrequencyBucketHigh
	case rate >= constants.MediumFrequencyThreshold:
		return models.FrequencyBucketMedium
	case rate > 0:
		return models.FrequencyBucketLow
	default:
		return models.FrequencyBucketNone
	}
}

// MemberAttendanceRate is the share of meetingUIDs the member attended.
func (s *ParticipationService) MemberAttendanceRate(ctx context.Context, memberUID string, meetingUIDs []string) (float64, error) {
	if !s.ServiceReady() {
		return 0, notReady(ctx)
	}
	if len(meetingUIDs) == 0 {
		return 0, nil
	}

	counts, err := s.Store.Attendance().CountAttended(ctx, meetingUIDs)
	if err != nil {
		return 0, err
	}
	return AttendanceRate(counts[memberUID], len(meetingUIDs)), nil
}

// CommunityMemberListing rates every member over all meetings of the
// community. The result is sorted by rate, highest first, with the most
// recently joined member first among equal rates.
func (s *ParticipationService) CommunityMemberListing(ctx context.Context, communityUID string) ([]*models.MemberParticipation, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	ctx = logging.AppendCtx(ctx, slog.String("community_uid", communityUID))

	var (
		members  []*models.Member
		meetings []*models.Meeting
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		members, err = s.Store.Members().ListByCommunity(gctx, communityUID)
		return err
	})
	g.Go(func() (err error) {
		meetings, err = s.Store.Meetings().ListByCommunity(gctx, communityUID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing, err := s.participation(ctx, members, meetingUIDs(meetings))
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(listing, func(a, b *models.MemberParticipation) int {
		if c := cmp.Compare(b.AttendanceRate, a.AttendanceRate); c != 0 {
			return c
		}
		return b.Member.JoinedAt.Compare(a.Member.JoinedAt)
	})
	return listing, nil
}

// DashboardStats returns the member state histogram and the engagement
// histogram over the most recent non-announcement meetings. Results are
// served from the stats cache when one is configured.
func (s *ParticipationService) DashboardStats(ctx context.Context, communityUID string) (*models.DashboardStats, error) {
	if !s.ServiceReady() {
		return nil, notReady(ctx)
	}

	ctx = logging.AppendCtx(ctx, slog.String("community_uid", communityUID))

	// cacheable is only set on a clean miss; the revision then guards the Put.
	var (
		cacheable bool
		revision  uint64
	)
	if s.StatsCache != nil {
		stats, rev, err := s.StatsCache.Get(ctx, communityUID)
		switch {
		case err == nil:
			slog.DebugContext(ctx, "dashboard stats served from cache")
			return stats, nil
		case domain.IsNotFound(err):
			cacheable, revision = true, rev
		default:
			slog.WarnContext(ctx, "error reading dashboard stats cache", logging.ErrKey, err)
		}
	}

	var (
		members []*models.Member
		window  []*models.Meeting
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		members, err = s.Store.Members().ListByCommunity(gctx, communityUID)
		return err
	})
	g.Go(func() (err error) {
		window, err = s.Store.Meetings().ListRecent(gctx, communityUID, constants.ParticipationWindowMeetings)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	windowUIDs := meetingUIDs(window)
	participation, err := s.participation(ctx, members, windowUIDs)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		CommunityUID:          communityUID,
		TotalMembers:          len(members),
		MembersByState:        make(map[models.MemberState]int, len(models.MemberStates)),
		ParticipationByBucket: make(map[models.FrequencyBucket]int, len(models.FrequencyBuckets)),
		WindowMeetingUIDs:     windowUIDs,
		ComputedAt:            s.Config.now(),
	}
	for _, state := range models.MemberStates {
		stats.MembersByState[state] = 0
	}
	for _, bucket := range models.FrequencyBuckets {
		stats.ParticipationByBucket[bucket] = 0
	}
	for _, m := range members {
		stats.MembersByState[m.State]++
	}
	for _, p := range participation {
		stats.ParticipationByBucket[p.Frequency]++
	}

	if cacheable {
		err := s.StatsCache.Put(ctx, stats, revision)
		switch {
		case domain.IsConflict(err):
			slog.DebugContext(ctx, "dashboard stats changed while computing, not caching")
		case err != nil:
			slog.WarnContext(ctx, "error caching dashboard stats", logging.ErrKey, err)
		}
	}
	return stats, nil
}

// participation rates every member over the given meetings.
func (s *ParticipationService) participation(ctx context.Context, members []*models.Member, meetingUIDs []string) ([]*models.MemberParticipation, error) {
	counts := map[string]int{}
	if len(meetingUIDs) > 0 {
		var err error
		counts, err = s.Store.Attendance().CountAttended(ctx, meetingUIDs)
		if err != nil {
			return nil, err
		}
	}

	out := make([]*models.MemberParticipation, 0, len(members))
	for _, m := range members {
		rate := AttendanceRate(counts[m.UID], len(meetingUIDs))
		out = append(out, &models.MemberParticipation{
			Member:         *m,
			AttendedCount:  counts[m.UID],
			MeetingCount:   len(meetingUIDs),
			AttendanceRate: rate,
			Frequency:      ClassifyFrequency(rate),
		})
	}
	return out, nil
}

func meetingUIDs(meetings []*models.Meeting) []string {
	uids := make([]string, 0, len(meetings))
	for _, m := range meetings {
		uids = append(uids, m.UID)
	}
	return uids
}
