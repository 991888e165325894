// Package audit persists audit events to PostgreSQL. Events describe what
// happened to a session's store (imports, exports, scans); record contents
// are never written.
package audit

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fieldform/internal/core"
)

// Table is the audit table name.
const Table = "audit_events"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

var columns = []string{
	"id", "session_id", "action", "file_name", "records", "success",
	"error", "error_code", "ip_address", "user_agent", "duration_ms", "created_at",
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PostgresStore implements core.AuditSink on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

var _ core.AuditSink = (*PostgresStore)(nil)

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, pc PoolConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse audit database url: %w", err)
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = int32(pc.MaxConns)
	}
	if pc.MinConns > 0 {
		poolConfig.MinConns = int32(pc.MinConns)
	}
	if pc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = pc.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, sb: newBuilder()}
}

func newBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RecordEvent implements core.AuditSink.
func (s *PostgresStore) RecordEvent(ctx context.Context, ev core.AuditEvent) error {
	query, args, err := insertQuery(s.sb, ev)
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func insertQuery(sb sq.StatementBuilderType, ev core.AuditEvent) (string, []any, error) {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return sb.Insert(Table).
		Columns(columns...).
		Values(
			ev.ID, ev.SessionID, string(ev.Action), ev.FileName, ev.Records, ev.Success,
			ev.Error, ev.ErrorCode, ev.IPAddress, ev.UserAgent, ev.Duration.Milliseconds(), createdAt.UTC(),
		).
		ToSql()
}

// Filter narrows List and Count. Zero fields are ignored.
type Filter struct {
	SessionID string
	Action    core.AuditAction
	Success   *bool
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

func applyFilter(q sq.SelectBuilder, f Filter) sq.SelectBuilder {
	if f.SessionID != "" {
		q = q.Where(sq.Eq{"session_id": f.SessionID})
	}
	if f.Action != "" {
		q = q.Where(sq.Eq{"action": string(f.Action)})
	}
	if f.Success != nil {
		q = q.Where(sq.Eq{"success": *f.Success})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": f.Since.UTC()})
	}
	if !f.Until.IsZero() {
		q = q.Where(sq.Lt{"created_at": f.Until.UTC()})
	}
	return q
}

func listQuery(sb sq.StatementBuilderType, f Filter) (string, []any, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := applyFilter(sb.Select(columns...).From(Table), f).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q.ToSql()
}

func countQuery(sb sq.StatementBuilderType, f Filter) (string, []any, error) {
	return applyFilter(sb.Select("COUNT(*)").From(Table), f).ToSql()
}

// List returns events matching f, newest first.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]core.AuditEvent, error) {
	query, args, err := listQuery(s.sb, f)
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	events, err := pgx.CollectRows(rows, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}

// Count returns how many events match f. Limit and Offset are ignored.
func (s *PostgresStore) Count(ctx context.Context, f Filter) (int64, error) {
	query, args, err := countQuery(s.sb, f)
	if err != nil {
		return 0, fmt.Errorf("build audit count: %w", err)
	}
	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}

func scanEvent(row pgx.CollectableRow) (core.AuditEvent, error) {
	var (
		ev         core.AuditEvent
		action     string
		durationMS int64
	)
	err := row.Scan(
		&ev.ID, &ev.SessionID, &action, &ev.FileName, &ev.Records, &ev.Success,
		&ev.Error, &ev.ErrorCode, &ev.IPAddress, &ev.UserAgent, &durationMS, &ev.CreatedAt,
	)
	if err != nil {
		return ev, err
	}
	ev.Action = core.AuditAction(action)
	ev.Duration = time.Duration(durationMS) * time.Millisecond
	return ev, nil
}
