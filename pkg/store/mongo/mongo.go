// Package mongo stores family trees in a MongoDB collection, one document
// per tree.
package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/store"
)

// Defaults for [Config].
const (
	DefaultDatabase   = "stemma"
	DefaultCollection = "trees"
)

// Config selects the database and collection.
type Config struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Store implements [store.Store] on a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
	now    func() time.Time
}

// document is the stored form: the tree plus counts for listing.
type document struct {
	family.Tree `bson:",inline"`
	Households  int `bson:"households"`
	Members     int `bson:"members"`
	EdgeCount   int `bson:"edgeCount"`
}

// Connect dials cfg.URI, pings the server and ensures indexes.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}
	s := New(client, cfg)
	s.owned = true
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}

// New wraps an existing client. Close does not disconnect it.
func New(client *mongo.Client, cfg Config) *Store {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create indexes")
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]store.Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"nodes": 0, "edges": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list trees")
	}
	defer cur.Close(ctx)

	var out []store.Summary
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode tree")
		}
		out = append(out, store.Summary{
			ID:         doc.ID,
			Name:       doc.Name,
			Households: doc.Households,
			Members:    doc.Members,
			Edges:      doc.EdgeCount,
			CreatedAt:  doc.CreatedAt.UTC(),
			UpdatedAt:  doc.UpdatedAt.UTC(),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list trees")
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (family.Tree, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return family.Tree{}, store.NotFound(id)
		}
		return family.Tree{}, errors.Wrap(errors.ErrCodeStorage, err, "get tree %s", id)
	}
	t := doc.Tree
	if t.Nodes == nil {
		t.Nodes = []family.Household{}
	}
	if t.Edges == nil {
		t.Edges = []family.Edge{}
	}
	t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return t, nil
}

func (s *Store) Create(ctx context.Context, name string) (family.Tree, error) {
	t, err := family.NewTree(name, family.DefaultRoot)
	if err != nil {
		return family.Tree{}, err
	}
	return s.Save(ctx, t)
}

func (s *Store) Save(ctx context.Context, t family.Tree) (family.Tree, error) {
	if t.ID != "" && t.CreatedAt.IsZero() {
		var existing struct {
			CreatedAt time.Time `bson:"createdAt"`
		}
		err := s.coll.FindOne(ctx, bson.M{"_id": t.ID},
			options.FindOne().SetProjection(bson.M{"createdAt": 1})).Decode(&existing)
		switch {
		case err == nil:
			t.CreatedAt = existing.CreatedAt
		case !stderrors.Is(err, mongo.ErrNoDocuments):
			return family.Tree{}, errors.Wrap(errors.ErrCodeStorage, err, "save tree %s", t.Name)
		}
	}
	prepared, err := store.Prepare(t, s.now())
	if err != nil {
		return family.Tree{}, err
	}
	// BSON dates carry milliseconds.
	prepared.CreatedAt = prepared.CreatedAt.Truncate(time.Millisecond)
	prepared.UpdatedAt = prepared.UpdatedAt.Truncate(time.Millisecond)

	doc := document{
		Tree:       prepared,
		Households: len(prepared.Nodes),
		Members:    prepared.MemberCount(),
		EdgeCount:  len(prepared.Edges),
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": prepared.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return family.Tree{}, errors.Wrap(errors.ErrCodeStorage, err, "save tree %s", prepared.Name)
	}
	return prepared, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete tree %s", id)
	}
	if res.DeletedCount == 0 {
		return store.NotFound(id)
	}
	return nil
}

// Close disconnects the client if [Connect] created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
