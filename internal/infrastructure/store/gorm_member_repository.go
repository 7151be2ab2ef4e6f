// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"go.opentelemetry.io/otel/attribute"
)

type memberRepository struct {
	base
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) (err error) {
	ctx, span := r.startSpan(ctx, "create", attribute.String("db.member_uid", member.UID))
	defer func() { finishSpan(span, err) }()

	return r.translate(ctx, "create", r.conn(ctx).Create(newMemberRow(member)).Error)
}

func (r *memberRepository) Get(ctx context.Context, memberUID string) (_ *models.Member, err error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("db.member_uid", memberUID))
	defer func() { finishSpan(span, err) }()

	var row memberRow
	if err := r.conn(ctx).Where("uid = ?", memberUID).First(&row).Error; err != nil {
		return nil, r.translate(ctx, "get", err)
	}
	return row.toModel(), nil
}

func (r *memberRepository) UpdateState(ctx context.Context, memberUID string, state models.MemberState) (err error) {
	ctx, span := r.startSpan(ctx, "update_state",
		attribute.String("db.member_uid", memberUID),
		attribute.String("db.member_state", string(state)),
	)
	defer func() { finishSpan(span, err) }()

	result := r.conn(ctx).
		Model(&memberRow{}).
		Where("uid = ?", memberUID).
		Updates(map[string]any{
			"state":      string(state),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return r.translate(ctx, "update_state", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("member not found")
	}
	return nil
}

func (r *memberRepository) ListByCommunity(ctx context.Context, communityUID string) (_ []*models.Member, err error) {
	ctx, span := r.startSpan(ctx, "list", attribute.String("db.community_uid", communityUID))
	defer func() { finishSpan(span, err) }()

	var rows []memberRow
	if err := r.conn(ctx).
		Where("community_uid = ?", communityUID).
		Order("joined_at ASC").
		Order("uid ASC").
		Find(&rows).Error; err != nil {
		return nil, r.translate(ctx, "list", err)
	}

	members := make([]*models.Member, 0, len(rows))
	for i := range rows {
		members = append(members, rows[i].toModel())
	}
	return members, nil
}

func (r *memberRepository) BelongsToCommunity(ctx context.Context, communityUID, memberUID string) (_ bool, err error) {
	ctx, span := r.startSpan(ctx, "belongs_to_community",
		attribute.String("db.community_uid", communityUID),
		attribute.String("db.member_uid", memberUID),
	)
	defer func() { finishSpan(span, err) }()

	var count int64
	if err := r.conn(ctx).
		Model(&memberRow{}).
		Where("community_uid = ? AND uid = ?", communityUID, memberUID).
		Count(&count).Error; err != nil {
		return false, r.translate(ctx, "belongs_to_community", err)
	}
	return count > 0, nil
}
