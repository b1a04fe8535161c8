package audit

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// LogSink writes audit entries to a structured logger. It is used when no
// audit database is configured.
type LogSink struct {
	logger *slog.Logger
}

var _ core.AuditSink = (*LogSink)(nil)

// NewLogSink logs through logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, e core.AuditEntry) error {
	e = prepare(e)
	s.logger.InfoContext(ctx, "audit",
		"audit_id", e.ID,
		"actor", e.Actor,
		"action", e.Action,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
		"ip", e.IPAddress,
	)
	return nil
}
