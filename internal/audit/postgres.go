// Package audit provides the audit sinks: a PostgreSQL table written with
// pgx and a structured-log fallback.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS audit_log (
    id          UUID PRIMARY KEY,
    actor       TEXT NOT NULL,
    action      TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id   TEXT,
    before_data JSONB,
    after_data  JSONB,
    ip_address  TEXT,
    user_agent  TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_log_entity_idx ON audit_log (entity_type, entity_id, created_at DESC);
`

const insertSQL = `
INSERT INTO audit_log (id, actor, action, entity_type, entity_id, before_data, after_data, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10)`

const recentSQL = `
SELECT id, actor, action, entity_type, COALESCE(entity_id, ''), before_data, after_data,
       COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
FROM audit_log
WHERE ($1 = '' OR entity_type = $1)
  AND ($2 = '' OR entity_id = $2)
ORDER BY created_at DESC
LIMIT $3`

// PGSink writes audit entries to PostgreSQL.
type PGSink struct {
	pool *pgxpool.Pool
}

var (
	_ core.AuditSink   = (*PGSink)(nil)
	_ core.AuditReader = (*PGSink)(nil)
)

// NewPGSink wraps an open pool.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

// Connect opens and pings a pool for url.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse audit database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the audit table if it does not exist.
func (s *PGSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts one entry. Snapshots are stored as JSONB.
func (s *PGSink) Record(ctx context.Context, e core.AuditEntry) error {
	e = prepare(e)

	before, err := snapshot(e.Before)
	if err != nil {
		return fmt.Errorf("encode before snapshot: %w", err)
	}
	after, err := snapshot(e.After)
	if err != nil {
		return fmt.Errorf("encode after snapshot: %w", err)
	}

	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.New()
	}

	_, err = s.pool.Exec(ctx, insertSQL,
		id, e.Actor, string(e.Action), e.EntityType, e.EntityID,
		before, after, e.IPAddress, e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries matching f.
func (s *PGSink) Recent(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = core.DefaultAuditLimit
	}

	rows, err := s.pool.Query(ctx, recentSQL, f.EntityType, f.EntityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (core.AuditEntry, error) {
	var (
		e             core.AuditEntry
		id            uuid.UUID
		action        string
		before, after []byte
	)
	err := row.Scan(&id, &e.Actor, &action, &e.EntityType, &e.EntityID,
		&before, &after, &e.IPAddress, &e.UserAgent, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	e.ID = id.String()
	e.Action = core.AuditAction(action)
	if len(before) > 0 {
		e.Before = json.RawMessage(before)
	}
	if len(after) > 0 {
		e.After = json.RawMessage(after)
	}
	return e, nil
}

// prepare fills the ID and timestamp when the caller left them empty.
func prepare(e core.AuditEntry) core.AuditEntry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Actor == "" {
		e.Actor = core.SystemActor
	}
	return e
}

// snapshot encodes an entity for storage. A nil snapshot stays NULL.
func snapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(*core.Member); ok && m == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
