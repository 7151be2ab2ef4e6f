// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/constants"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// readinessCheck reports whether the service can take inbound requests.
type readinessCheck func(ctx context.Context) bool

// newProbeHandler serves the liveness and readiness endpoints.
func newProbeHandler(ready readinessCheck) http.Handler {
	mux := http.NewServeMux()

	// Liveness always succeeds while the process runs; unrecoverable
	// errors terminate the process instead.
	mux.HandleFunc("GET "+constants.LivezPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.HandleFunc("GET "+constants.ReadyzPath, func(w http.ResponseWriter, r *http.Request) {
		if !ready(r.Context()) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK\n"))
	})

	var handler http.Handler = mux
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	return otelhttp.NewHandler(handler, "community-api-probe")
}

// setupProbeServer starts the probe HTTP server in the background.
func setupProbeServer(flags flags, ready readinessCheck, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newProbeHandler(ready),
		ReadHeaderTimeout: 3 * time.Second,
	}

	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting probe server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// ErrServerClosed is returned as soon as Shutdown is called, so the
		// wait group is released by gracefulShutdown instead.
	}()

	return httpServer
}
