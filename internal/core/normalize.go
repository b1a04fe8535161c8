package core

import (
	"strings"
	"time"
)

// RawFieldBag is an incoming field set keyed by canonical field name, as
// posted by a form or produced by MapRow.
type RawFieldBag map[string]any

// Canonical field keys.
const (
	KeyMembershipID                 = "membershipId"
	KeyFullName                     = "fullName"
	KeyGender                       = "gender"
	KeyStatus                       = "status"
	KeyMemberType                   = "memberType"
	KeyPhone                        = "phone"
	KeyEmail                        = "email"
	KeyAddress                      = "address"
	KeyRole                         = "role"
	KeyBio                          = "bio"
	KeyPDFURL                       = "pdfUrl"
	KeyPhotoURL                     = "photoUrl"
	KeyOccupation                   = "occupation"
	KeyEducationLevel               = "educationLevel"
	KeyFinancialCommitment          = "financialCommitment"
	KeyCIN                          = "cin"
	KeyNeighborhood                 = "neighborhood"
	KeyMemberOfRegionalBodies       = "memberOfRegionalBodies"
	KeyMemberOfRegionalBodiesDetail = "memberOfRegionalBodiesDetail"
	KeyAssignedMission              = "assignedMission"
	KeyAssignedMissionDetail        = "assignedMissionDetail"
	KeyPreviousPartyExperiences     = "previousPartyExperiences"

	// KeyMembershipDate is the human-facing alias for the stored joinedAt.
	KeyMembershipDate = "membershipDate"
	KeyJoinedAt       = "joinedAt"
)

// Record is the normalized, schema-ready form of a member write.
type Record struct {
	MembershipID Field[int64]
	FullName     Field[string]
	Gender       Field[Gender]
	Status       Field[Status]
	MemberType   Field[string]

	Phone               Field[string]
	Email               Field[string]
	Address             Field[string]
	Role                Field[string]
	Bio                 Field[string]
	PDFURL              Field[string]
	PhotoURL            Field[string]
	Occupation          Field[string]
	EducationLevel      Field[string]
	FinancialCommitment Field[string]
	CIN                 Field[string]
	Neighborhood        Field[string]

	MemberOfRegionalBodies       Field[bool]
	MemberOfRegionalBodiesDetail Field[string]
	AssignedMission              Field[bool]
	AssignedMissionDetail        Field[string]
	PreviousPartyExperiences     Field[string]

	JoinedAt Field[time.Time]
}

// textFields lists the plain trimmed text fields shared by Normalize and Bag.
func (r *Record) textFields() map[string]*Field[string] {
	return map[string]*Field[string]{
		KeyFullName:                     &r.FullName,
		KeyMemberType:                   &r.MemberType,
		KeyEmail:                        &r.Email,
		KeyAddress:                      &r.Address,
		KeyRole:                         &r.Role,
		KeyBio:                          &r.Bio,
		KeyPDFURL:                       &r.PDFURL,
		KeyPhotoURL:                     &r.PhotoURL,
		KeyOccupation:                   &r.Occupation,
		KeyEducationLevel:               &r.EducationLevel,
		KeyFinancialCommitment:          &r.FinancialCommitment,
		KeyMemberOfRegionalBodiesDetail: &r.MemberOfRegionalBodiesDetail,
		KeyAssignedMissionDetail:        &r.AssignedMissionDetail,
		KeyPreviousPartyExperiences:     &r.PreviousPartyExperiences,
	}
}

// Normalize canonicalizes an interactive field bag. It never invents
// fields: a key missing from bag stays Absent in the record.
//
// Unrecognized gender and status tokens are passed through verbatim so that
// Member.Validate rejects them with a schema error.
func Normalize(bag RawFieldBag) Record {
	var rec Record

	for key, f := range rec.textFields() {
		*f = textField(bag, key)
	}
	// memberType has a schema default; a blank value leaves it alone.
	if rec.MemberType.IsEmpty() {
		rec.MemberType = Field[string]{}
	}

	if v, ok := bag[KeyGender]; ok {
		rec.Gender = normalizeGender(v)
	}
	if v, ok := bag[KeyStatus]; ok {
		rec.Status = normalizeStatus(v)
	}

	if v, ok := bag[KeyPhone]; ok {
		switch {
		case v == nil:
			rec.Phone = Cleared[string]()
		default:
			if p := CleanPhone(stringify(v)); p != "" {
				rec.Phone = Set(p)
			} else {
				rec.Phone = Cleared[string]()
			}
		}
	}

	if v, ok := bag[KeyCIN]; ok && !isBlank(v) {
		if c := CleanCIN(stringify(v)); c != "" {
			rec.CIN = Set(c)
		}
	}

	if v, ok := bag[KeyNeighborhood]; ok {
		if s, isString := v.(string); isString {
			if n, ok := ParseNeighborhood(s).Recognized(); ok {
				rec.Neighborhood = Set(n)
			}
		}
	}

	if v, ok := bag[KeyMemberOfRegionalBodies]; ok {
		rec.MemberOfRegionalBodies = Set(ParseBool(v))
	}
	if v, ok := bag[KeyAssignedMission]; ok {
		rec.AssignedMission = Set(ParseBool(v))
	}

	if v, ok := bag[KeyMembershipDate]; ok && !isBlank(v) {
		if t, ok := v.(time.Time); ok {
			if !t.IsZero() {
				rec.JoinedAt = Set(t.UTC())
			}
		} else if t, ok := ParseMembershipDate(stringify(v)); ok {
			rec.JoinedAt = Set(t)
		}
	}

	if v, ok := bag[KeyMembershipID]; ok {
		if id, ok := ToMembershipID(v); ok {
			rec.MembershipID = Set(id)
		}
	}

	return rec
}

func textField(bag RawFieldBag, key string) Field[string] {
	v, ok := bag[key]
	if !ok {
		return Field[string]{}
	}
	if v == nil {
		return Cleared[string]()
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return Cleared[string]()
	}
	return Set(s)
}

func normalizeGender(v any) Field[Gender] {
	if isBlank(v) {
		return Cleared[Gender]()
	}
	raw := stringify(v)
	if g, ok := ParseGender(raw).Recognized(); ok {
		return Set(g)
	}
	return Set(Gender(raw))
}

func normalizeStatus(v any) Field[Status] {
	if isBlank(v) {
		return Field[Status]{}
	}
	raw := stringify(v)
	if s, ok := ParseStatus(raw).Recognized(); ok {
		return Set(s)
	}
	return Set(Status(raw))
}

// Bag renders the record back into a field bag. Present fields carry their
// canonical value, Empty fields carry "", Absent fields are omitted. The
// membership date is emitted under its alias key.
func (r Record) Bag() RawFieldBag {
	bag := RawFieldBag{}

	for key, f := range r.textFields() {
		putField(bag, key, *f, func(s string) any { return s })
	}
	putField(bag, KeyGender, r.Gender, func(g Gender) any { return string(g) })
	putField(bag, KeyStatus, r.Status, func(s Status) any { return string(s) })
	putField(bag, KeyPhone, r.Phone, func(s string) any { return s })
	putField(bag, KeyCIN, r.CIN, func(s string) any { return s })
	putField(bag, KeyNeighborhood, r.Neighborhood, func(s string) any { return s })
	putField(bag, KeyMemberOfRegionalBodies, r.MemberOfRegionalBodies, func(b bool) any { return b })
	putField(bag, KeyAssignedMission, r.AssignedMission, func(b bool) any { return b })
	putField(bag, KeyMembershipDate, r.JoinedAt, func(t time.Time) any { return formatDate(t) })
	putField(bag, KeyMembershipID, r.MembershipID, func(id int64) any { return id })

	return bag
}

func putField[T any](bag RawFieldBag, key string, f Field[T], render func(T) any) {
	switch f.Presence() {
	case Present:
		bag[key] = render(f.Value())
	case Empty:
		bag[key] = ""
	}
}
