package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pitclaw/internal/models"
	"pitclaw/internal/repository"
)

type AuditService struct {
	auditRepo repository.AuditRepo
}

func NewAuditService(auditRepo repository.AuditRepo) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// Append records a single audited command. Intended as the orchestrator's
// AuditFunc, adapted to go through the repository with a context.
func (s *AuditService) Append(ctx context.Context, kind, description string, detail any) error {
	return s.auditRepo.Append(ctx, models.AuditEvent{
		Kind:        kind,
		Description: description,
		Detail:      detail,
	})
}

func (s *AuditService) List(ctx context.Context, f AuditFilter) ([]models.AuditEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	kind := strings.TrimSpace(strings.ToLower(f.Kind))
	return s.auditRepo.List(ctx, from, to, kind)
}
