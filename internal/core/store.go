package core

import (
	"context"
	"time"
)

// Lookup is a single-field equality query used for identity resolution.
type Lookup struct {
	Field string
	Value any
	// FoldCase requests a case-insensitive exact match. Stores must treat
	// Value as a literal, never as a pattern.
	FoldCase bool
}

// MemberFilter selects members for listing, counting and bulk deletes.
// Zero-valued fields do not constrain the result.
type MemberFilter struct {
	Gender         string     `json:"gender,omitempty"`
	EducationLevel string     `json:"educationLevel,omitempty"`
	MemberType     string     `json:"memberType,omitempty"`
	Status         string     `json:"status,omitempty"`
	JoinedBefore   *time.Time `json:"joinedBefore,omitempty"`
	// NameContains is a case-insensitive literal substring of fullName.
	NameContains string `json:"nameContains,omitempty"`
}

// IsZero reports whether the filter matches every member.
func (f MemberFilter) IsZero() bool {
	return f.Gender == "" && f.EducationLevel == "" && f.MemberType == "" &&
		f.Status == "" && f.JoinedBefore == nil && f.NameContains == ""
}

// SortSpec is one sort key.
type SortSpec struct {
	Field string
	Desc  bool
}

// ListQuery is a filtered, sorted, paged member query.
type ListQuery struct {
	Filter MemberFilter
	Sort   []SortSpec
	Offset int
	Limit  int
}

// MemberStore is the persistence contract for members.
//
// Implementations enforce Member.Validate on Create and Save, and reject
// duplicate membershipId or cin values with an error wrapping ErrDuplicate.
type MemberStore interface {
	// FindOne returns the first member matching l, or nil when none does.
	FindOne(ctx context.Context, l Lookup) (*Member, error)
	// FindByID returns ErrNotFound when id does not exist.
	FindByID(ctx context.Context, id string) (*Member, error)
	// Create assigns ID and timestamps on m.
	Create(ctx context.Context, m *Member) error
	// Save replaces a stored member and refreshes m.UpdatedAt.
	Save(ctx context.Context, m *Member) error
	// DeleteByID returns the deleted member, or ErrNotFound.
	DeleteByID(ctx context.Context, id string) (*Member, error)
	DeleteMany(ctx context.Context, f MemberFilter) (int64, error)
	Count(ctx context.Context, f MemberFilter) (int64, error)
	List(ctx context.Context, q ListQuery) ([]Member, error)
}
