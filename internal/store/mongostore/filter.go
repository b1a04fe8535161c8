package mongostore

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// lookupFilter builds the query for an identity lookup. Case-folded
// matches use an anchored regex over the escaped value, so user input is
// never interpreted as a pattern.
func lookupFilter(l core.Lookup) (bson.D, error) {
	switch l.Field {
	case core.KeyMembershipID, core.KeyCIN, core.KeyEmail, core.KeyPhone, core.KeyFullName:
	default:
		return nil, fmt.Errorf("mongostore: unsupported lookup field %q", l.Field)
	}

	if !l.FoldCase {
		return bson.D{{Key: l.Field, Value: l.Value}}, nil
	}
	s, ok := l.Value.(string)
	if !ok {
		return nil, fmt.Errorf("mongostore: case-insensitive lookup on %s needs a string", l.Field)
	}
	return bson.D{{Key: l.Field, Value: primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(s) + "$",
		Options: "i",
	}}}, nil
}

// memberFilter translates a listing filter.
func memberFilter(f core.MemberFilter) bson.D {
	filter := bson.D{}
	if f.Gender != "" {
		filter = append(filter, bson.E{Key: core.KeyGender, Value: f.Gender})
	}
	if f.EducationLevel != "" {
		filter = append(filter, bson.E{Key: core.KeyEducationLevel, Value: f.EducationLevel})
	}
	if f.MemberType != "" {
		filter = append(filter, bson.E{Key: core.KeyMemberType, Value: f.MemberType})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: core.KeyStatus, Value: f.Status})
	}
	if f.JoinedBefore != nil {
		filter = append(filter, bson.E{Key: core.KeyJoinedAt, Value: bson.D{{Key: "$lt", Value: *f.JoinedBefore}}})
	}
	if f.NameContains != "" {
		filter = append(filter, bson.E{Key: core.KeyFullName, Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(f.NameContains),
			Options: "i",
		}})
	}
	return filter
}

// sortDoc translates sort specs, always ending on _id for a stable order.
func sortDoc(specs []core.SortSpec) bson.D {
	doc := bson.D{}
	hasID := false
	for _, s := range specs {
		dir := 1
		if s.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: s.Field, Value: dir})
		if s.Field == "_id" {
			hasID = true
		}
	}
	if !hasID {
		doc = append(doc, bson.E{Key: "_id", Value: 1})
	}
	return doc
}
