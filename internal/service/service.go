// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// Now is the clock used for temporal checks and timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (c ServiceConfig) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so that messages match the payload the caller sent.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validatePayload runs the struct tag rules on payload and converts failures
// into a validation error listing every offending field.
func validatePayload(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewValidationError("invalid payload", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(problems)
	return domain.NewValidationError("invalid payload: "+strings.Join(problems, ", "), err)
}

// notReady logs and builds the error returned by a service that is missing
// its dependencies.
func notReady(ctx context.Context) error {
	slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
	return domain.NewUnavailableError("service not initialized")
}

// invalidateStats drops the cached dashboard stats of a community. A failure
// only means the next dashboard read may be stale until the entry expires.
func invalidateStats(ctx context.Context, cache domain.StatsCache, communityUID string) {
	if cache == nil || communityUID == "" {
		return
	}
	if err := cache.Invalidate(ctx, communityUID); err != nil {
		slog.WarnContext(ctx, "error invalidating dashboard stats", "community_uid", communityUID, logging.ErrKey, err)
	}
}
