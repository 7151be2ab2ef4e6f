// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-community-service/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqliteBusyTimeout is how long a SQLite writer waits for the database lock.
const sqliteBusyTimeout = 5 * time.Second

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/linuxfoundation/lfx-v2-community-service/internal/infrastructure/store"

// Config is the relational store configuration.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	SlowThreshold   time.Duration
}

// Store is the gorm implementation of [domain.Store].
type Store struct {
	db     *gorm.DB
	system string
}

var _ domain.Store = (*Store)(nil)

// Open connects to the configured database and optionally migrates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	maxOpenConns := cfg.MaxOpenConns
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
		// SQLite has a single writer; one connection serializes writes.
		if maxOpenConns == 0 {
			maxOpenConns = 1
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	slowThreshold := cfg.SlowThreshold
	if slowThreshold == 0 {
		slowThreshold = 200 * time.Millisecond
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             slowThreshold,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s connection pool: %w", cfg.Driver, err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := NewStore(db, cfg.Driver)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "connected to database", "driver", cfg.Driver, "auto_migrate", cfg.AutoMigrate)
	return s, nil
}

// sqliteDSN sets a busy timeout on the DSN unless it already has one.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, sqliteBusyTimeout.Milliseconds())
}

// NewStore wraps an existing gorm handle.
func NewStore(db *gorm.DB, system string) *Store {
	return &Store{db: db, system: system}
}

// Migrate creates or updates the tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&meetingRow{}, &attendanceRow{}, &memberRow{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsReady checks if the database answers a ping.
func (s *Store) IsReady(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

func (s *Store) Meetings() domain.MeetingRepository {
	return &meetingRepository{base: base{db: s.db, system: s.system, entity: "meeting"}}
}

func (s *Store) Attendance() domain.AttendanceRepository {
	return &attendanceRepository{base: base{db: s.db, system: s.system, entity: "attendance"}}
}

func (s *Store) Members() domain.MemberRepository {
	return &memberRepository{base: base{db: s.db, system: s.system, entity: "member"}}
}

// WithTx runs fn in a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db.transaction",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", s.system)),
	)
	defer func() { finishSpan(span, err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, system: s.system})
	})
}

// base carries what every repository needs.
type base struct {
	db     *gorm.DB
	system string
	entity string
}

func (b base) conn(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

// startSpan opens a client span for a store operation.
func (b base) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "db."+b.entity+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("db.system", b.system),
			attribute.String("db.operation", operation),
			attribute.String("db.entity", b.entity),
		}, attrs...)...),
	)
}

// translate maps driver errors onto domain errors.
func (b base) translate(ctx context.Context, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewNotFoundError(fmt.Sprintf("%s not found", b.entity), err)
	case isUniqueViolation(err):
		return domain.NewConflictError(fmt.Sprintf("%s already exists", b.entity), err)
	default:
		slog.ErrorContext(ctx, fmt.Sprintf("error running %s %s", b.entity, operation), logging.ErrKey, err)
		return domain.NewInternalError(fmt.Sprintf("failed to %s %s", operation, b.entity), err)
	}
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if domain.IsNotFound(err) {
			span.SetStatus(codes.Error, "not found")
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// isUniqueViolation recognizes duplicate-key errors from every supported driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
