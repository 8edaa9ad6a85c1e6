package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the sink for audit events. It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records outbound operations. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Operation == "" || e.Outcome == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends the result of an outbound call: err nil means the carrier accepted it.
func (s *Service) Record(ctx context.Context, e Event, via string, err error) error {
	e.Outcome = OutcomeAccepted
	e.Via = via
	if err != nil {
		e.Outcome = OutcomeFailed
		e.Error = err.Error()
	}
	return s.Append(ctx, e)
}
