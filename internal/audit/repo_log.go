package audit

import (
	"context"
	"log/slog"
)

// LogRepo writes events to a dedicated structured logger.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo {
	return &LogRepo{log: l.With("component", "audit")}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	level := slog.LevelInfo
	if e.Outcome == OutcomeFailed {
		level = slog.LevelWarn
	}
	r.log.LogAttrs(ctx, level, "audit",
		slog.String("audit_id", e.ID),
		slog.String("operation", string(e.Operation)),
		slog.String("outcome", string(e.Outcome)),
		slog.String("client_id", e.ClientID),
		slog.String("ip_address", e.IPAddress),
		slog.String("request_id", e.RequestID),
		slog.String("via", e.Via),
		slog.Int("recipients", e.Recipients),
		slog.String("error", e.Error),
		slog.Time("created_at", e.CreatedAt),
	)
	return nil
}
