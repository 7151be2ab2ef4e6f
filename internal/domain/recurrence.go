// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
)

// RecurrenceCalculator computes the date of the next occurrence of a series.
type RecurrenceCalculator interface {
	// NextOccurrence returns nil when the recurrence has no frequency.
	NextOccurrence(current time.Time, recurrence models.Recurrence) *time.Time
}
