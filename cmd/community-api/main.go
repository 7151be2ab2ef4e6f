// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the community service API. It serves recurring meeting,
// attendance and participation requests over NATS request/reply and exposes
// liveness and readiness probes over HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/cache"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/utils"
	"github.com/nats-io/nats.go"
)

func main() {
	loadDotEnv()
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		os.Exit(1)
	}

	db, err := store.Open(ctx, store.Config{
		Driver:       env.DBDriver,
		DSN:          env.DBDSN,
		MaxOpenConns: env.DBMaxConns,
		AutoMigrate:  env.DBAutoMigrate,
	})
	if err != nil {
		slog.With(logging.ErrKey, err, "driver", env.DBDriver).Error("error opening database")
		os.Exit(1)
	}

	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		os.Exit(1)
	}

	statsBucket, err := getStatsBucket(ctx, natsConn, env.StatsCacheTTL)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting dashboard stats bucket")
		os.Exit(1)
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{Now: time.Now}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	statsCache := cache.NewNatsStatsCache(statsBucket, env.StatsCacheTTL)
	recurrenceService := service.NewRecurrenceService()

	meetingService := service.NewMeetingService(db, recurrenceService, messageBuilder, statsCache, serviceConfig)
	attendanceService := service.NewAttendanceService(db, messageBuilder, statsCache, serviceConfig)
	participationService := service.NewParticipationService(db, statsCache, serviceConfig)
	memberService := service.NewMemberService(db, statsCache, serviceConfig)

	communityHandler := handlers.NewCommunityHandler(
		meetingService,
		attendanceService,
		participationService,
		memberService,
	)

	ready := func(ctx context.Context) bool {
		return communityHandler.HandlerReady() && natsConn.IsConnected() && db.IsReady(ctx)
	}
	httpServer := setupProbeServer(flags, ready, &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	err = createNatsSubscriptions(ctx, communityHandler, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)

	if err := db.Close(); err != nil {
		slog.With(logging.ErrKey, err).Error("error closing database")
	}
	if err := otelShutdown(context.Background()); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry SDK")
	}
}

// gracefulShutdown stops the probe server and drains NATS, waiting at most
// gracefulShutdownSeconds for both.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("graceful shutdown requested")

	// Cancelling the parent context marks the NATS close as expected.
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer cancelTimeout()

	go func() {
		defer gracefulCloseWG.Done()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
	}()

	if !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	waited := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		slog.Info("graceful shutdown complete")
	case <-ctx.Done():
		slog.Warn("graceful shutdown timed out")
	}
}
