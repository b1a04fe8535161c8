package core

import (
	"context"
	"fmt"
	"strings"
)

// Resolver finds the stored member an incoming record represents.
type Resolver struct {
	store MemberStore
}

// NewResolver creates a resolver over store.
func NewResolver(store MemberStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve tries the identity keys present on rec in fixed priority order
// (membershipId, cin, email, phone, fullName) and returns the first hit.
// Append mode always returns nil.
func (r *Resolver) Resolve(ctx context.Context, rec Record, mode ImportMode) (*Member, error) {
	if mode == ModeAppend {
		return nil, nil
	}
	for _, l := range identityLookups(rec) {
		m, err := r.store.FindOne(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("resolve by %s: %w", l.Field, err)
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// identityLookups builds the ordered lookup chain for the keys rec carries.
func identityLookups(rec Record) []Lookup {
	lookups := make([]Lookup, 0, 5)
	if id, ok := rec.MembershipID.Get(); ok {
		lookups = append(lookups, Lookup{Field: KeyMembershipID, Value: id})
	}
	if cin, ok := rec.CIN.Get(); ok && cin != "" {
		lookups = append(lookups, Lookup{Field: KeyCIN, Value: cin})
	}
	if email, ok := rec.Email.Get(); ok {
		if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
			lookups = append(lookups, Lookup{Field: KeyEmail, Value: e, FoldCase: true})
		}
	}
	if phone, ok := rec.Phone.Get(); ok && phone != "" {
		lookups = append(lookups, Lookup{Field: KeyPhone, Value: phone})
	}
	if name, ok := rec.FullName.Get(); ok && name != "" {
		lookups = append(lookups, Lookup{Field: KeyFullName, Value: name, FoldCase: true})
	}
	return lookups
}
