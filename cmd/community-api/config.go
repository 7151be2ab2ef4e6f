// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-community-service/pkg/utils"
)

const (
	defaultPort          = "8080"
	defaultNatsURL       = "nats://localhost:4222"
	defaultDBDSN         = "community.db"
	defaultStatsCacheTTL = 10 * time.Minute
)

// flags are the command line flags for the community service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the community service.
type environment struct {
	Port          string
	NatsURL       string
	DBDriver      string
	DBDSN         string
	DBAutoMigrate bool
	DBMaxConns    int
	StatsCacheTTL time.Duration
}

// loadDotEnv loads a .env file from the working directory when there is one.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.With(logging.ErrKey, err).Warn("error loading .env file")
	}
}

// parseFlags parses command line flags for the community service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port for the probe server")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the community service
func parseEnv() environment {
	driver := utils.Coalesce(os.Getenv("DB_DRIVER"), store.DriverSQLite)
	if driver != store.DriverSQLite && driver != store.DriverPostgres {
		slog.Error("DB_DRIVER must be sqlite or postgres", "driver", driver)
		os.Exit(1)
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		if driver == store.DriverPostgres {
			slog.Error("DB_DSN environment variable is required for postgres")
			os.Exit(1)
		}
		dsn = defaultDBDSN
	}

	maxConns := 0
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			slog.With("value", raw).Warn("invalid DB_MAX_OPEN_CONNS, using driver default")
		} else {
			maxConns = v
		}
	}

	ttl := defaultStatsCacheTTL
	if raw := os.Getenv("STATS_CACHE_TTL"); raw != "" {
		v, err := time.ParseDuration(raw)
		if err != nil || v < 0 {
			slog.With("value", raw).Warn("invalid STATS_CACHE_TTL, using default")
		} else {
			ttl = v
		}
	}

	return environment{
		Port:          utils.Coalesce(os.Getenv("PORT"), defaultPort),
		NatsURL:       utils.Coalesce(os.Getenv("NATS_URL"), defaultNatsURL),
		DBDriver:      driver,
		DBDSN:         dsn,
		DBAutoMigrate: os.Getenv("DB_AUTO_MIGRATE") != "false",
		DBMaxConns:    maxConns,
		StatsCacheTTL: ttl,
	}
}
