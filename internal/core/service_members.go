package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/memberdesk/internal/logging"
)

// Paging limits for member listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// sortableFields is the whitelist of member fields a listing may sort by.
var sortableFields = map[string]bool{
	"fullName":       true,
	"membershipId":   true,
	"joinedAt":       true,
	"status":         true,
	"memberType":     true,
	"phone":          true,
	"createdAt":      true,
	"_id":            true,
	"gender":         true,
	"educationLevel": true,
}

// ListParams is a listing request as received from a caller.
type ListParams struct {
	Filter   MemberFilter
	Sort     []string // unknown fields are ignored
	Desc     bool
	Page     int // 1-based
	PageSize int
}

// MemberPage is one page of a listing.
type MemberPage struct {
	Members    []Member `json:"members"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalCount int64    `json:"totalCount"`
	TotalPages int      `json:"totalPages"`
}

// BulkDeleteResult reports a filtered bulk delete.
type BulkDeleteResult struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// CreateMember normalizes bag and inserts a new member. A usable
// membership date is mandatory.
func (s *Service) CreateMember(ctx context.Context, bag RawFieldBag) (*Member, error) {
	rec := Normalize(bag)
	if !rec.JoinedAt.IsSet() {
		return nil, ErrMembershipDateRequired
	}

	m := NewMember(rec)
	if err := s.store.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	s.audit(ctx, ActionCreate, EntityMember, m.ID, nil, m)
	return m, nil
}

// UpdateMember applies an interactive edit. Absent fields are untouched,
// explicitly emptied fields are cleared. A replaced local photo is removed.
func (s *Service) UpdateMember(ctx context.Context, id string, bag RawFieldBag) (*Member, error) {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := m.Clone()

	m.Apply(Normalize(bag))
	if err := s.store.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	s.audit(ctx, ActionUpdate, EntityMember, m.ID, before, m)

	if before.PhotoURL != "" && before.PhotoURL != m.PhotoURL {
		s.removePhoto(ctx, before.PhotoURL)
	}
	return m, nil
}

// DeleteMember removes a member and its stored photo.
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	m, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	s.audit(ctx, ActionDelete, EntityMember, m.ID, m, nil)

	if m.PhotoURL != "" {
		s.removePhoto(ctx, m.PhotoURL)
	}
	return nil
}

// DeleteMembers deletes every member matching f. An empty filter needs
// confirm to be set.
func (s *Service) DeleteMembers(ctx context.Context, f MemberFilter, confirm bool) (*BulkDeleteResult, error) {
	if f.IsZero() && !confirm {
		return nil, ErrBulkDeleteUnscoped
	}

	n, err := s.store.DeleteMany(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("bulk delete: %w", err)
	}
	s.audit(ctx, ActionDelete, EntityMemberBulk, "",
		map[string]any{"filters": f},
		map[string]any{"deletedCount": n},
	)
	return &BulkDeleteResult{Message: "Bulk delete completed", DeletedCount: n}, nil
}

// GetMember returns one member or ErrNotFound.
func (s *Service) GetMember(ctx context.Context, id string) (*Member, error) {
	return s.store.FindByID(ctx, id)
}

// CountMembers counts members matching f.
func (s *Service) CountMembers(ctx context.Context, f MemberFilter) (int64, error) {
	return s.store.Count(ctx, f)
}

// ListMembers returns one page of members. The page is clamped to the last
// page; sorting defaults to fullName ascending.
func (s *Service) ListMembers(ctx context.Context, p ListParams) (*MemberPage, error) {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	total, err := s.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	members, err := s.store.List(ctx, ListQuery{
		Filter: p.Filter,
		Sort:   sortSpecs(p.Sort, p.Desc),
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if members == nil {
		members = []Member{}
	}

	return &MemberPage{
		Members:    members,
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: pages,
	}, nil
}

func sortSpecs(fields []string, desc bool) []SortSpec {
	specs := make([]SortSpec, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if sortableFields[f] && !seen[f] {
			seen[f] = true
			specs = append(specs, SortSpec{Field: f, Desc: desc})
		}
	}
	if len(specs) == 0 {
		specs = append(specs, SortSpec{Field: KeyFullName})
	}
	return specs
}

func (s *Service) removePhoto(ctx context.Context, ref string) {
	if s.photos == nil {
		return
	}
	res := s.photos.Remove(ref)
	logger := logging.FromContext(ctx)
	if res.Err != nil {
		logger.Warn("photo cleanup failed", "ref", ref, "status", res.Status, "error", res.Err)
		return
	}
	logger.Debug("photo cleanup", "ref", ref, "status", res.Status)
}
