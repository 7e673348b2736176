// Package postgres persists audit entries in PostgreSQL. The BIGSERIAL id
// gives the monotonic total order; the reverted marker is set with a
// conditional update so concurrent rollbacks cannot both win.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reguard/internal/auditlog"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	txcontext "reguard/pkg/platform/tx"
)

// Schema is applied by migrations and the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id             BIGSERIAL PRIMARY KEY,
	tenant_id      UUID NOT NULL,
	actor_id       UUID NOT NULL,
	event_type     TEXT NOT NULL,
	resource_type  TEXT NOT NULL,
	resource_id    TEXT NOT NULL,
	changes        JSONB NOT NULL,
	ip             TEXT NOT NULL DEFAULT '',
	client         TEXT NOT NULL DEFAULT '',
	request_id     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	reverted_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_entries_tenant_idx ON audit_entries (tenant_id, id DESC);
`

// Store implements auditlog.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, entry *auditlog.Entry) (auditlog.EntryID, error) {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return 0, fmt.Errorf("marshal changes payload: %w", err)
	}

	query := `
		INSERT INTO audit_entries (
			tenant_id, actor_id, event_type, resource_type, resource_id,
			changes, ip, client, request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var entryID int64
	err = s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(entry.TenantID), uuid.UUID(entry.ActorID),
		string(entry.EventType), string(entry.ResourceType), entry.ResourceID,
		changes, entry.Metadata.IP, entry.Metadata.Client, entry.Metadata.RequestID,
		entry.CreatedAt,
	).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return auditlog.EntryID(entryID), nil
}

const entryColumns = `
	id, tenant_id, actor_id, event_type, resource_type, resource_id,
	changes, ip, client, request_id, created_at, reverted_at
`

func (s *Store) FindByID(ctx context.Context, tenantID id.TenantID, entryID auditlog.EntryID) (*auditlog.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entries WHERE id = $1 AND tenant_id = $2`
	row := s.execer(ctx).QueryRowContext(ctx, query, int64(entryID), uuid.UUID(tenantID))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find audit entry: %w", err)
	}
	return entry, nil
}

func (s *Store) List(ctx context.Context, tenantID id.TenantID, limit int) ([]*auditlog.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entries WHERE tenant_id = $1 ORDER BY id DESC`
	args := []any{uuid.UUID(tenantID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*auditlog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// MarkReverted is a compare-and-set: the WHERE clause only matches while the
// marker is unset, so exactly one concurrent rollback attempt can succeed.
func (s *Store) MarkReverted(ctx context.Context, tenantID id.TenantID, entryID auditlog.EntryID, at time.Time) error {
	query := `
		UPDATE audit_entries
		SET reverted_at = $3
		WHERE id = $1 AND tenant_id = $2 AND reverted_at IS NULL
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, int64(entryID), uuid.UUID(tenantID), at)
	if err != nil {
		return fmt.Errorf("mark audit entry reverted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark audit entry reverted: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish "already reverted" from "absent or foreign tenant".
	var exists bool
	err = s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM audit_entries WHERE id = $1 AND tenant_id = $2)`,
		int64(entryID), uuid.UUID(tenantID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("mark audit entry reverted: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*auditlog.Entry, error) {
	var (
		entry      auditlog.Entry
		entryID    int64
		tenantID   uuid.UUID
		actorID    uuid.UUID
		eventType  string
		resType    string
		changes    []byte
		revertedAt sql.NullTime
	)
	err := row.Scan(
		&entryID, &tenantID, &actorID, &eventType, &resType, &entry.ResourceID,
		&changes, &entry.Metadata.IP, &entry.Metadata.Client, &entry.Metadata.RequestID,
		&entry.CreatedAt, &revertedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(changes, &entry.Changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes payload: %w", err)
	}
	entry.ID = auditlog.EntryID(entryID)
	entry.TenantID = id.TenantID(tenantID)
	entry.ActorID = id.UserID(actorID)
	entry.EventType = auditlog.EventType(eventType)
	entry.ResourceType = auditlog.ResourceType(resType)
	if revertedAt.Valid {
		at := revertedAt.Time
		entry.RevertedAt = &at
	}
	return &entry, nil
}
