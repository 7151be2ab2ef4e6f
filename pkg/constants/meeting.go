// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Meeting scheduling constraints
const (
	// MaxInstancesPerTemplate caps the generated instances of one template (a year of weekly meetings).
	MaxInstancesPerTemplate = 52

	// DefaultMeetingDurationMinutes is used when a meeting is created without a duration
	DefaultMeetingDurationMinutes = 60

	// MaxMeetingDurationMinutes is the maximum duration of a meeting in minutes
	MaxMeetingDurationMinutes = 1440
)

// Participation classification
const (
	// ParticipationWindowMeetings is the number of most recent non-announcement
	// meetings the dashboard frequency histogram looks at.
	ParticipationWindowMeetings = 10

	// HighFrequencyThreshold is the lowest rate (percent) classified as high.
	HighFrequencyThreshold = 75.0

	// MediumFrequencyThreshold is the lowest rate (percent) classified as medium.
	MediumFrequencyThreshold = 25.0
)

// Worker pool sizing
const (
	// EventPublishWorkers bounds concurrent event publishing after series deletes.
	EventPublishWorkers = 8
)
