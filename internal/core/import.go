package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/memberdesk/internal/logging"
)

// ImportMode selects how rows that match an existing member are handled.
type ImportMode string

const (
	// ModeUpsert merges matching rows into the existing member.
	ModeUpsert ImportMode = "upsert"
	// ModeAppend creates every row without looking for a match.
	ModeAppend ImportMode = "append"
	// ModeSkip leaves matching members untouched and reports the row.
	ModeSkip ImportMode = "skip"
)

// ParseImportMode maps a request value onto a mode. Anything unknown is
// treated as upsert.
func ParseImportMode(s string) ImportMode {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAppend:
		return ModeAppend
	case ModeSkip:
		return ModeSkip
	default:
		return ModeUpsert
	}
}

// MaxImportRows is the default per-batch row ceiling.
const MaxImportRows = 1000

// SkippedMessage is recorded for rows left alone in skip mode.
const SkippedMessage = "Skipped existing member (mode=skip)"

// RowError describes one row that did not complete normally. Row is 1-based.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult accumulates the outcome of one batch.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

// ImportSummary is the transport-facing result of an import request.
type ImportSummary struct {
	Message string       `json:"message"`
	Rows    int          `json:"rows"`
	Results ImportResult `json:"results"`
}

// Workbook is a decoded spreadsheet.
type Workbook interface {
	// SheetNames returns sheet names in workbook order.
	SheetNames() []string
	// Rows returns the data rows of sheet keyed by header label. Empty
	// cells are nil.
	Rows(sheet string) ([]map[string]any, error)
}

// WorkbookDecoder turns an uploaded file into a Workbook.
type WorkbookDecoder interface {
	Decode(data []byte) (Workbook, error)
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowUpdated
	rowSkipped
)

// ImportFile decodes data, takes the first sheet, checks the batch against
// the pre-flight rules and runs it. Pre-flight failures satisfy IsPreflight.
func (s *Service) ImportFile(ctx context.Context, data []byte, mode ImportMode) (*ImportSummary, error) {
	if len(data) == 0 {
		return nil, preflight(ErrNoFile)
	}
	if s.decoder == nil {
		return nil, errors.New("import: no workbook decoder configured")
	}

	wb, err := s.decoder.Decode(data)
	if err != nil {
		return nil, preflight(fmt.Errorf("%w: %v", ErrUnreadableFile, err))
	}
	sheets := wb.SheetNames()
	if len(sheets) == 0 {
		return nil, preflight(ErrNoSheet)
	}
	rows, err := wb.Rows(sheets[0])
	if err != nil {
		return nil, preflight(fmt.Errorf("%w: %v", ErrUnreadableFile, err))
	}

	result, err := s.RunImport(ctx, rows, mode)
	if err != nil {
		return nil, err
	}
	return &ImportSummary{
		Message: "Import completed",
		Rows:    len(rows),
		Results: *result,
	}, nil
}

// RunImport processes rows strictly in order. A failing row is recorded in
// the result and never aborts the batch; only pre-flight checks and a busy
// limiter return an error.
func (s *Service) RunImport(ctx context.Context, rows []map[string]any, mode ImportMode) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, preflight(ErrNoRows)
	}
	if len(rows) > s.maxRows {
		return nil, preflight(fmt.Errorf("%w (%d). Limit is %d", ErrTooManyRows, len(rows), s.maxRows))
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	importID := uuid.New().String()
	logger := logging.WithFields(ctx, "import_id", importID, "mode", mode)
	logger.Info("import started", "rows", len(rows))
	start := time.Now()

	result := &ImportResult{Errors: []RowError{}}
	for i, row := range rows {
		outcome, err := s.importRow(ctx, row, mode)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: i + 1, Message: err.Error()})
			logger.Debug("import row failed", "row", i+1, "error", err)
		case outcome == rowCreated:
			result.Created++
		case outcome == rowUpdated:
			result.Updated++
		case outcome == rowSkipped:
			result.Errors = append(result.Errors, RowError{Row: i + 1, Message: SkippedMessage})
		}
	}

	elapsed := time.Since(start)
	logger.Info("import completed",
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
		"duration", elapsed,
	)
	if s.observer != nil {
		s.observer.ObserveImport(mode, *result, elapsed)
	}
	return result, nil
}

func (s *Service) importRow(ctx context.Context, row map[string]any, mode ImportMode) (outcome rowOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	rec := ImportRecord(MapRow(row))

	existing, err := s.resolver.Resolve(ctx, rec, mode)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		m := NewMember(rec)
		if err := s.store.Create(ctx, m); err != nil {
			return 0, err
		}
		s.audit(ctx, ActionCreate, EntityMember, m.ID, nil, m)
		return rowCreated, nil
	}

	if mode == ModeSkip {
		return rowSkipped, nil
	}

	before := existing.Clone()
	existing.Merge(rec)
	if err := s.store.Save(ctx, existing); err != nil {
		return 0, err
	}
	s.audit(ctx, ActionUpdate, EntityMember, existing.ID, before, existing)
	return rowUpdated, nil
}

// ImportRecord normalizes a mapped spreadsheet row. It is stricter than
// Normalize: unrecognized gender tokens and any field that is empty after
// cleaning are dropped, and the membership date accepts spreadsheet date
// serials. Member type and status default to active.
func ImportRecord(bag RawFieldBag) Record {
	var rec Record

	for key, f := range rec.textFields() {
		if v := textField(bag, key); v.IsSet() {
			*f = v
		}
	}
	if !rec.MemberType.IsSet() {
		rec.MemberType = Set("active")
	}

	rec.Status = Set(StatusActive)
	if v, ok := bag[KeyStatus]; ok && !isBlank(v) {
		raw := strings.TrimSpace(stringify(v))
		if st, ok := ParseStatus(raw).Recognized(); ok {
			rec.Status = Set(st)
		} else {
			rec.Status = Set(Status(raw))
		}
	}

	if v, ok := firstPresent(bag, KeyMembershipDate, KeyJoinedAt); ok {
		if t, ok := ParseSpreadsheetDate(v); ok {
			rec.JoinedAt = Set(t)
		}
	}

	if v, ok := bag[KeyGender]; ok && !isBlank(v) {
		if g, ok := ParseGender(stringify(v)).Recognized(); ok {
			rec.Gender = Set(g)
		}
	}

	if v, ok := bag[KeyMembershipID]; ok {
		if id, ok := ToMembershipID(v); ok {
			rec.MembershipID = Set(id)
		}
	}

	if v, ok := bag[KeyCIN]; ok && !isBlank(v) {
		if c := CleanCIN(stringify(v)); c != "" {
			rec.CIN = Set(c)
		}
	}

	if v, ok := bag[KeyPhone]; ok && !isBlank(v) {
		if p := CleanPhone(stringify(v)); p != "" {
			rec.Phone = Set(p)
		}
	}

	if v, ok := bag[KeyNeighborhood]; ok && !isBlank(v) {
		if n, ok := ParseNeighborhood(stringify(v)).Recognized(); ok {
			rec.Neighborhood = Set(n)
		}
	}

	return rec
}

func firstPresent(bag RawFieldBag, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := bag[k]; ok && !isBlank(v) {
			return v, true
		}
	}
	return nil, false
}
