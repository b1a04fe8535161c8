package core

import (
	"time"

	"github.com/JonMunkholm/memberdesk/internal/uploads"
)

// PhotoRemover deletes stored photo files. Removal is advisory: the caller
// logs the result and carries on.
type PhotoRemover interface {
	Remove(ref string) uploads.RemoveResult
}

// ImportObserver receives per-batch import statistics.
type ImportObserver interface {
	ObserveImport(mode ImportMode, result ImportResult, elapsed time.Duration)
}

// Options configures a Service. Store is required; everything else is
// optional.
type Options struct {
	Store    MemberStore
	Audit    AuditSink
	Photos   PhotoRemover
	Decoder  WorkbookDecoder
	Observer ImportObserver

	MaxImportRows        int
	MaxConcurrentImports int
	ImportWaitTime       time.Duration
}

// Service provides the member business logic: interactive edits and
// spreadsheet imports.
type Service struct {
	store     MemberStore
	resolver  *Resolver
	auditSink AuditSink
	photos    PhotoRemover
	decoder   WorkbookDecoder
	observer  ImportObserver
	limiter   *ImportLimiter
	maxRows   int
}

// NewService creates a Service from opts.
func NewService(opts Options) *Service {
	maxRows := opts.MaxImportRows
	if maxRows <= 0 {
		maxRows = MaxImportRows
	}
	return &Service{
		store:     opts.Store,
		resolver:  NewResolver(opts.Store),
		auditSink: opts.Audit,
		photos:    opts.Photos,
		decoder:   opts.Decoder,
		observer:  opts.Observer,
		limiter:   NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWaitTime),
		maxRows:   maxRows,
	}
}

// ImportLimiter exposes the batch limiter for health checks and shutdown.
func (s *Service) ImportLimiter() *ImportLimiter {
	return s.limiter
}
