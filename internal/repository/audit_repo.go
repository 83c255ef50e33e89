package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"pitclaw/internal/models"

	"github.com/google/uuid"
)

type AuditSQLite struct {
	db *sql.DB
}

func NewAuditSQLite(db *sql.DB) *AuditSQLite { return &AuditSQLite{db: db} }

// Append inserts a new audit event. If EventID or OccurredAt are empty, they're set.
func (r *AuditSQLite) Append(ctx context.Context, e models.AuditEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var detailPtr *string
	if e.Detail != nil {
		if b, err := json.Marshal(e.Detail); err == nil {
			s := string(b)
			detailPtr = &s
		}
	}

	// Insert with SQLite TIMESTAMP format "YYYY-MM-DD HH:MM:SS"
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, occurred_at, kind, message, detail)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.EventID,
		e.OccurredAt.Format("2006-01-02 15:04:05"),
		strings.ToLower(strings.TrimSpace(e.Kind)),
		e.Description,
		detailPtr,
	)

	return err
}

// List returns audit events filtered by [from, to] (inclusive) and/or kind, ordered ASC.
func (r *AuditSQLite) List(ctx context.Context, from, to time.Time, kind string) ([]models.AuditEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if kind = strings.ToLower(strings.TrimSpace(kind)); kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}

	q := `SELECT id, occurred_at, kind, message, detail FROM audit_log`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.AuditEvent, 0, 64)
	for rows.Next() {
		var ev models.AuditEvent
		var detailStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Kind, &ev.Description, &detailStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if detailStr.Valid && detailStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(detailStr.String), &v); err == nil {
				ev.Detail = v
			} else {
				ev.Detail = detailStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
