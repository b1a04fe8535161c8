// Package memory is an in-process MemberStore. It enforces the same
// validation and uniqueness rules as the MongoDB store and backs tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// Store keeps members in a map guarded by a mutex. Values are cloned on the
// way in and out so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	members map[string]*core.Member
	order   []string
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		members: make(map[string]*core.Member),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ core.MemberStore = (*Store)(nil)

func (s *Store) FindOne(_ context.Context, l core.Lookup) (*core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		m := s.members[id]
		if matchLookup(m, l) {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *Store) Create(_ context.Context, m *core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(m, ""); err != nil {
		return err
	}
	now := s.now()
	m.ID = uuid.New().String()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.members[m.ID] = m.Clone()
	s.order = append(s.order, m.ID)
	return nil
}

func (s *Store) Save(_ context.Context, m *core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[m.ID]; !ok {
		return core.ErrNotFound
	}
	if err := s.checkUnique(m, m.ID); err != nil {
		return err
	}
	m.UpdatedAt = s.now()
	s.members[m.ID] = m.Clone()
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id string) (*core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	s.remove(id)
	return m, nil
}

func (s *Store) DeleteMany(_ context.Context, f core.MemberFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range append([]string(nil), s.order...) {
		if matchFilter(s.members[id], f) {
			s.remove(id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Count(_ context.Context, f core.MemberFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, id := range s.order {
		if matchFilter(s.members[id], f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) List(_ context.Context, q core.ListQuery) ([]core.Member, error) {
	s.mu.RLock()
	matched := make([]core.Member, 0, len(s.order))
	for _, id := range s.order {
		if m := s.members[id]; matchFilter(m, q.Filter) {
			matched = append(matched, *m.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		for _, spec := range q.Sort {
			c := compareField(&matched[i], &matched[j], spec.Field)
			if c == 0 {
				continue
			}
			if spec.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if q.Offset >= len(matched) {
		return []core.Member{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// UnsetEmptyCIN clears empty-string national IDs. Members created through
// this store never carry one, so it only reports what it fixed.
func (s *Store) UnsetEmptyCIN(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, m := range s.members {
		if m.CIN != nil && strings.TrimSpace(*m.CIN) == "" {
			m.CIN = nil
			n++
		}
	}
	return n, nil
}

func (s *Store) remove(id string) {
	delete(s.members, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// checkUnique mirrors the sparse unique indexes on membershipId and cin.
func (s *Store) checkUnique(m *core.Member, selfID string) error {
	for id, other := range s.members {
		if id == selfID {
			continue
		}
		if m.MembershipID != nil && other.MembershipID != nil && *m.MembershipID == *other.MembershipID {
			return fmt.Errorf("%w: membershipId %d", core.ErrDuplicate, *m.MembershipID)
		}
		if m.CIN != nil && other.CIN != nil && *m.CIN == *other.CIN {
			return fmt.Errorf("%w: cin %s", core.ErrDuplicate, *m.CIN)
		}
	}
	return nil
}

func matchLookup(m *core.Member, l core.Lookup) bool {
	switch l.Field {
	case core.KeyMembershipID:
		id, ok := l.Value.(int64)
		return ok && m.MembershipID != nil && *m.MembershipID == id
	case core.KeyCIN:
		return m.CIN != nil && equalText(*m.CIN, l.Value, l.FoldCase)
	case core.KeyEmail:
		return m.Email != "" && equalText(m.Email, l.Value, l.FoldCase)
	case core.KeyPhone:
		return m.Phone != "" && equalText(m.Phone, l.Value, l.FoldCase)
	case core.KeyFullName:
		return equalText(m.FullName, l.Value, l.FoldCase)
	default:
		return false
	}
}

func equalText(stored string, v any, fold bool) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if fold {
		return strings.EqualFold(stored, s)
	}
	return stored == s
}

func matchFilter(m *core.Member, f core.MemberFilter) bool {
	if f.Gender != "" && string(m.Gender) != f.Gender {
		return false
	}
	if f.EducationLevel != "" && m.EducationLevel != f.EducationLevel {
		return false
	}
	if f.MemberType != "" && m.MemberType != f.MemberType {
		return false
	}
	if f.Status != "" && string(m.Status) != f.Status {
		return false
	}
	if f.JoinedBefore != nil && (m.JoinedAt == nil || !m.JoinedAt.Before(*f.JoinedBefore)) {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(m.FullName), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// compareField orders two members by a sortable field. Missing values sort
// first, as they do in MongoDB.
func compareField(a, b *core.Member, field string) int {
	switch field {
	case "membershipId":
		return compareInt64Ptr(a.MembershipID, b.MembershipID)
	case "joinedAt":
		return compareTimePtr(a.JoinedAt, b.JoinedAt)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "gender":
		return strings.Compare(string(a.Gender), string(b.Gender))
	case "memberType":
		return strings.Compare(a.MemberType, b.MemberType)
	case "phone":
		return strings.Compare(a.Phone, b.Phone)
	case "educationLevel":
		return strings.Compare(a.EducationLevel, b.EducationLevel)
	case "_id":
		return strings.Compare(a.ID, b.ID)
	default:
		return strings.Compare(a.FullName, b.FullName)
	}
}

func compareInt64Ptr(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
