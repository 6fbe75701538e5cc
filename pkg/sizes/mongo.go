package sizes

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase   = "coinbubbles"
	defaultMongoCollection = "bubble_sizes"
)

// MongoOptions configures [OpenMongo]. Zero fields take their defaults.
type MongoOptions struct {
	// Database defaults to the path of the URI, then "coinbubbles".
	Database   string
	Collection string
	Logger     *log.Logger
}

// MongoStore keeps one document per id: {_id, base_size, updated_at}.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *log.Logger
}

type sizeDoc struct {
	ID        string    `bson:"_id"`
	BaseSize  float64   `bson:"base_size"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri string, opts MongoOptions) (*MongoStore, error) {
	logger := orDiscard(opts.Logger)
	if opts.Database == "" {
		opts.Database = databaseFromURI(uri)
	}
	if opts.Collection == "" {
		opts.Collection = defaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo %s: %w", redact(uri), err)
	}

	logger.Info("size collection ready", "database", opts.Database, "collection", opts.Collection)
	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		logger: logger,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (float64, bool, error) {
	var doc sizeDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get size %s: %w", id, err)
	}
	return doc.BaseSize, true, nil
}

func (s *MongoStore) Put(ctx context.Context, id string, size float64) error {
	if err := checkSize(size); err != nil {
		return err
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"base_size": size, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put size %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Increment(ctx context.Context, id string, delta float64) (float64, error) {
	if err := checkSize(delta); err != nil {
		return 0, err
	}
	var doc sizeDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"base_size": delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment size %s: %w", id, err)
	}
	return doc.BaseSize, nil
}

func (s *MongoStore) All(ctx context.Context) (map[string]float64, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	var docs []sizeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	out := make(map[string]float64, len(docs))
	for _, d := range docs {
		out[d.ID] = d.BaseSize
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db
	}
	return defaultMongoDatabase
}

var _ Store = (*MongoStore)(nil)
