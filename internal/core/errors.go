package core

import "errors"

var (
	// ErrNoFile is returned when an import request carries no file.
	ErrNoFile = errors.New("no file provided")
	// ErrNoSheet is returned when a workbook has no readable sheet.
	ErrNoSheet = errors.New("no sheet found in workbook")
	// ErrNoRows is returned when the chosen sheet has no data rows.
	ErrNoRows = errors.New("empty file: no rows to import")
	// ErrTooManyRows is returned when a batch exceeds the row ceiling.
	ErrTooManyRows = errors.New("too many rows in import")
	// ErrUnreadableFile is returned when the upload cannot be decoded.
	ErrUnreadableFile = errors.New("unreadable spreadsheet file")

	ErrNotFound   = errors.New("member not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrValidation = errors.New("validation failed")

	// ErrMembershipDateRequired is returned by Create when no usable
	// membership date was supplied.
	ErrMembershipDateRequired = errors.New("required field: membership date")
	// ErrBulkDeleteUnscoped guards against deleting every member by accident.
	ErrBulkDeleteUnscoped = errors.New("bulk delete requires a filter or explicit confirmation")
)

// ImportError marks a batch-fatal rejection raised before any row is
// processed. Transports map it to a client error.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string { return e.Err.Error() }

func (e *ImportError) Unwrap() error { return e.Err }

func preflight(err error) error {
	return &ImportError{Err: err}
}

// IsPreflight reports whether err rejected a whole import batch.
func IsPreflight(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}
