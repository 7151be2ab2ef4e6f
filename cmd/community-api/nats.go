// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/cache"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// gracefulShutdownSeconds should be higher than NATS client
	// request timeout, and lower than the pod or liveness probe's
	// terminationGracePeriodSeconds.
	gracefulShutdownSeconds = 25
)

// setupNATS connects to NATS. A connection closed outside of a graceful
// shutdown sends a synthetic SIGINT on done.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	slog.With("nats_url", env.NatsURL).Info("attempting to connect to NATS")

	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Name("lfx-v2-community-service"),
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).Info("NATS connection established")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Graceful shutdown: let the remaining steps finish.
				gracefulCloseWG.Done()
				return
			}
			// Max reconnect attempts are exhausted.
			slog.Error("NATS max-reconnects exhausted; connection closed")
			done <- syscall.SIGINT
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	gracefulCloseWG.Add(1)

	return natsConn, nil
}

// getStatsBucket creates or updates the dashboard stats bucket. The bucket TTL
// bounds how long the server keeps an entry.
func getStatsBucket(ctx context.Context, natsConn *nats.Conn, ttl time.Duration) (jetstream.KeyValue, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cache.KVStoreNameDashboardStats,
		Description: "computed community dashboard statistics",
		TTL:         ttl,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("open key-value bucket %s: %w", cache.KVStoreNameDashboardStats, err)
	}
	return kv, nil
}

// createNatsSubscriptions subscribes the handler to every community API
// subject in a shared queue group.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	subject := models.CommunityAPISubjectPrefix + ">"
	slog.With("subject", subject, "queue", models.CommunityAPIQueue).Info("subscribing to NATS subjects")

	_, err := natsConn.QueueSubscribe(subject, models.CommunityAPIQueue, func(msg *nats.Msg) {
		handler.HandleMessage(ctx, &natsMessage{msg: msg})
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	return nil
}

// natsMessage adapts a NATS message to domain.Message.
type natsMessage struct {
	msg *nats.Msg
}

var _ domain.Message = (*natsMessage)(nil)

func (m *natsMessage) Subject() string {
	return m.msg.Subject
}

func (m *natsMessage) Data() []byte {
	return m.msg.Data
}

func (m *natsMessage) Header(key string) string {
	return m.msg.Header.Get(key)
}

func (m *natsMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}

func (m *natsMessage) HasReply() bool {
	return m.msg.Reply != ""
}
