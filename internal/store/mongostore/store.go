package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// CollectionMembers is the member collection name.
const CollectionMembers = "members"

// Store is a MongoDB-backed core.MemberStore.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ core.MemberStore = (*Store)(nil)

// New wraps a database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		coll: db.Collection(CollectionMembers),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Open connects through c and returns a store on database name.
func Open(ctx context.Context, c *Connector, name string) (*Store, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return New(client.Database(name)), nil
}

// EnsureIndexes creates the sparse unique indexes on the identity keys.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: core.KeyMembershipID, Value: 1}},
			Options: options.Index().SetName("membershipId_unique").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: core.KeyCIN, Value: 1}},
			Options: options.Index().SetName("cin_unique").SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: core.KeyEmail, Value: 1}}, Options: options.Index().SetName("email")},
		{Keys: bson.D{{Key: core.KeyPhone, Value: 1}}, Options: options.Index().SetName("phone")},
		{Keys: bson.D{{Key: core.KeyFullName, Value: 1}}, Options: options.Index().SetName("fullName")},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("ensure member indexes: %w", err)
	}
	return nil
}

func (s *Store) FindOne(ctx context.Context, l core.Lookup) (*core.Member, error) {
	filter, err := lookupFilter(l)
	if err != nil {
		return nil, err
	}

	var m core.Member
	err = s.coll.FindOne(ctx, filter).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find member by %s: %w", l.Field, err)
	}
	return &m, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*core.Member, error) {
	var m core.Member
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find member %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) Create(ctx context.Context, m *core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}

	now := s.now()
	m.ID = primitive.NewObjectID().Hex()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		m.ID = ""
		return wrapWriteError(err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, m *core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}

	m.UpdatedAt = s.now()
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: m.ID}}, m)
	if err != nil {
		return wrapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (*core.Member, error) {
	var m core.Member
	err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete member %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) DeleteMany(ctx context.Context, f core.MemberFilter) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, memberFilter(f))
	if err != nil {
		return 0, fmt.Errorf("delete members: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Count(ctx context.Context, f core.MemberFilter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, memberFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (s *Store) List(ctx context.Context, q core.ListQuery) ([]core.Member, error) {
	opts := options.Find().SetSort(sortDoc(q.Sort))
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.coll.Find(ctx, memberFilter(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := []core.Member{}
	if err := cur.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return members, nil
}

// UnsetEmptyCIN removes empty-string cin values left by older records so
// they stop colliding on the unique index.
func (s *Store) UnsetEmptyCIN(ctx context.Context) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.D{{Key: core.KeyCIN, Value: ""}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: core.KeyCIN, Value: ""}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("unset empty cin: %w", err)
	}
	return res.ModifiedCount, nil
}

func wrapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", core.ErrDuplicate, err)
	}
	return fmt.Errorf("write member: %w", err)
}
