package service

import (
	"context"
	"time"

	"pitclaw/internal/models"
	"pitclaw/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Audit exposes append-only command history with filtering access. The
// orchestrator's AuditFunc feeds Append; the audit HTTP route feeds List.
type Audit interface {
	Append(ctx context.Context, kind, description string, detail any) error
	List(ctx context.Context, f AuditFilter) ([]models.AuditEvent, error)
}

type AuditFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Kind string
}

// Service aggregates the account and audit sub-services. Control of the
// controller itself (setpoints, alarms, sessions) is owned exclusively by
// the orchestrator, not by a service here.
type Service struct {
	Authorization
	Audit
}

func NewService(repos *repository.Repository) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Auth),
		Audit:         NewAuditService(repos.Audit),
	}
}
