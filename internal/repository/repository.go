package repository

import (
	"context"
	"database/sql"
	"time"

	"pitclaw/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

type AuditRepo interface {
	Append(ctx context.Context, e models.AuditEvent) error
	List(ctx context.Context, from, to time.Time, kind string) ([]models.AuditEvent, error)
}

type Repository struct {
	Audit AuditRepo
	Auth  Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Audit: NewAuditSQLite(db),
		Auth:  NewOperatorRepository(db),
	}
}
