package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/memberdesk/internal/logging"
)

// AuditAction represents the type of change being audited.
type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
)

// AuditEntry is one recorded change. Before and After are snapshots of the
// entity, nil on the side that does not exist.
type AuditEntry struct {
	ID         string      `json:"id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entityType"`
	EntityID   string      `json:"entityId"`
	Before     any         `json:"before,omitempty"`
	After      any         `json:"after,omitempty"`
	IPAddress  string      `json:"ipAddress,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// AuditSink persists audit entries.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditFilter narrows an audit trail query.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}

// AuditReader is implemented by sinks that can replay their trail.
type AuditReader interface {
	Recent(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// DefaultAuditLimit caps audit queries without an explicit limit.
const DefaultAuditLimit = 100

// audit records a change. A sink failure is logged and never returned.
func (s *Service) audit(ctx context.Context, action AuditAction, entityType, entityID string, before, after any) {
	if s.auditSink == nil {
		return
	}
	entry := AuditEntry{
		Actor:      ActorFromContext(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.auditSink.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("audit write failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

// AuditTrail returns recent audit entries when the sink supports reads.
func (s *Service) AuditTrail(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	reader, ok := s.auditSink.(AuditReader)
	if !ok {
		return []AuditEntry{}, nil
	}
	if f.Limit <= 0 || f.Limit > DefaultAuditLimit {
		f.Limit = DefaultAuditLimit
	}
	return reader.Recent(ctx, f)
}
