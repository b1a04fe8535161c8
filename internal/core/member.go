package core

import (
	"fmt"
	"strings"
	"time"
)

// EntityMember is the audit entity type for member records.
const EntityMember = "Member"

// EntityMemberBulk is the audit entity type for filtered bulk deletes.
const EntityMemberBulk = "MemberBulk"

// Member is a stored member document.
type Member struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	MembershipID *int64 `bson:"membershipId,omitempty" json:"membershipId,omitempty"`

	FullName   string `bson:"fullName" json:"fullName"`
	Gender     Gender `bson:"gender,omitempty" json:"gender,omitempty"`
	Status     Status `bson:"status" json:"status"`
	MemberType string `bson:"memberType" json:"memberType"`

	Phone               string  `bson:"phone,omitempty" json:"phone,omitempty"`
	Email               string  `bson:"email,omitempty" json:"email,omitempty"`
	Address             string  `bson:"address,omitempty" json:"address,omitempty"`
	Role                string  `bson:"role,omitempty" json:"role,omitempty"`
	Bio                 string  `bson:"bio,omitempty" json:"bio,omitempty"`
	PDFURL              string  `bson:"pdfUrl,omitempty" json:"pdfUrl,omitempty"`
	PhotoURL            string  `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Occupation          string  `bson:"occupation,omitempty" json:"occupation,omitempty"`
	EducationLevel      string  `bson:"educationLevel,omitempty" json:"educationLevel,omitempty"`
	FinancialCommitment string  `bson:"financialCommitment,omitempty" json:"financialCommitment,omitempty"`
	CIN                 *string `bson:"cin,omitempty" json:"cin,omitempty"`
	Neighborhood        string  `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`

	MemberOfRegionalBodies       bool   `bson:"memberOfRegionalBodies" json:"memberOfRegionalBodies"`
	MemberOfRegionalBodiesDetail string `bson:"memberOfRegionalBodiesDetail,omitempty" json:"memberOfRegionalBodiesDetail,omitempty"`
	AssignedMission              bool   `bson:"assignedMission" json:"assignedMission"`
	AssignedMissionDetail        string `bson:"assignedMissionDetail,omitempty" json:"assignedMissionDetail,omitempty"`
	PreviousPartyExperiences     string `bson:"previousPartyExperiences,omitempty" json:"previousPartyExperiences,omitempty"`

	JoinedAt  *time.Time `bson:"joinedAt,omitempty" json:"joinedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// NewMember builds a member from a record, filling schema defaults for
// anything the record leaves out.
func NewMember(rec Record) *Member {
	m := &Member{}
	m.apply(rec, true)
	if id, ok := rec.MembershipID.Get(); ok {
		m.MembershipID = &id
	}
	m.ApplyDefaults()
	return m
}

// ApplyDefaults fills schema defaults.
func (m *Member) ApplyDefaults() {
	if m.Status == "" {
		m.Status = StatusActive
	}
	if m.MemberType == "" {
		m.MemberType = "active"
	}
}

// Apply writes an interactive record onto m: Present fields are set,
// Empty fields are cleared, Absent fields are left alone.
func (m *Member) Apply(rec Record) {
	m.apply(rec, false)
}

// Merge writes only the Present fields of rec onto m, membership ID
// included. A clash with another member's ID fails on save.
func (m *Member) Merge(rec Record) {
	m.apply(rec, true)
}

func (m *Member) apply(rec Record, sparse bool) {
	applyText(&m.FullName, rec.FullName, sparse)
	applyText(&m.MemberType, rec.MemberType, sparse)
	applyText(&m.Phone, rec.Phone, sparse)
	applyText(&m.Email, rec.Email, sparse)
	applyText(&m.Address, rec.Address, sparse)
	applyText(&m.Role, rec.Role, sparse)
	applyText(&m.Bio, rec.Bio, sparse)
	applyText(&m.PDFURL, rec.PDFURL, sparse)
	applyText(&m.PhotoURL, rec.PhotoURL, sparse)
	applyText(&m.Occupation, rec.Occupation, sparse)
	applyText(&m.EducationLevel, rec.EducationLevel, sparse)
	applyText(&m.FinancialCommitment, rec.FinancialCommitment, sparse)
	applyText(&m.Neighborhood, rec.Neighborhood, sparse)
	applyText(&m.MemberOfRegionalBodiesDetail, rec.MemberOfRegionalBodiesDetail, sparse)
	applyText(&m.AssignedMissionDetail, rec.AssignedMissionDetail, sparse)
	applyText(&m.PreviousPartyExperiences, rec.PreviousPartyExperiences, sparse)
	applyText(&m.Gender, rec.Gender, sparse)
	applyText(&m.Status, rec.Status, sparse)

	if v, ok := rec.MemberOfRegionalBodies.Get(); ok {
		m.MemberOfRegionalBodies = v
	}
	if v, ok := rec.AssignedMission.Get(); ok {
		m.AssignedMission = v
	}

	switch rec.MembershipID.Presence() {
	case Present:
		id := rec.MembershipID.Value()
		m.MembershipID = &id
	case Empty:
		if !sparse {
			m.MembershipID = nil
		}
	}

	switch rec.CIN.Presence() {
	case Present:
		cin := rec.CIN.Value()
		m.CIN = &cin
	case Empty:
		if !sparse {
			m.CIN = nil
		}
	}

	if t, ok := rec.JoinedAt.Get(); ok {
		m.JoinedAt = &t
	}
}

func applyText[T ~string](dst *T, f Field[T], sparse bool) {
	switch f.Presence() {
	case Present:
		*dst = f.Value()
	case Empty:
		if !sparse {
			*dst = ""
		}
	}
}

// Validate enforces the member schema. Stores call it before every write.
func (m *Member) Validate() error {
	var errs []string

	if strings.TrimSpace(m.FullName) == "" {
		errs = append(errs, "fullName: required field")
	}
	if m.Gender != "" && !validGender(m.Gender) {
		errs = append(errs, fmt.Sprintf("gender: invalid enum value %q", m.Gender))
	}
	if !validStatus(m.Status) {
		errs = append(errs, fmt.Sprintf("status: invalid enum value %q", m.Status))
	}
	if m.Neighborhood != "" && !validNeighborhood(m.Neighborhood) {
		errs = append(errs, fmt.Sprintf("neighborhood: invalid enum value %q", m.Neighborhood))
	}
	if m.CIN != nil && *m.CIN == "" {
		errs = append(errs, "cin: must not be empty when set")
	}
	if m.MembershipID != nil && *m.MembershipID <= 0 {
		errs = append(errs, "membershipId: must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// Clone returns a deep copy, used for audit snapshots and store isolation.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	if m.MembershipID != nil {
		id := *m.MembershipID
		c.MembershipID = &id
	}
	if m.CIN != nil {
		cin := *m.CIN
		c.CIN = &cin
	}
	if m.JoinedAt != nil {
		t := *m.JoinedAt
		c.JoinedAt = &t
	}
	return &c
}
