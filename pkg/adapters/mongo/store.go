// Package mongo implements core.RecordStore on a MongoDB collection.
//
// Documents keep the field names of earlier deployments:
//
//	{_id, path: <lookup key>, content: <ciphertext>, lastModified: <ISO-8601 string>}
//
// One client is created lazily on first use and shared by every request for
// the life of the Store. Close disconnects it.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aretw0/pathnote/pkg/core"
)

// Config holds the connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
	Logger     *slog.Logger

	// Timeout bounds server selection and Close. Zero means 10s.
	Timeout time.Duration
}

// ErrMissingNamespace is returned per request when the URI, database or
// collection name is not configured.
var ErrMissingNamespace = errors.New("mongo: uri, database or collection not configured")

type document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Path         string             `bson:"path"`
	Content      string             `bson:"content"`
	LastModified string             `bson:"lastModified"`
}

// Store implements core.RecordStore using MongoDB.
type Store struct {
	config Config

	once      sync.Once
	client    *mongo.Client
	connErr   error
	connected time.Time

	indexMu    sync.Mutex // also guards client and connected for State
	indexReady bool
}

// New returns a Store. No connection is made until the first request.
func New(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Store{config: config}
}

// Initialize makes no server contact. Configuration problems (bad URI,
// missing database or collection name) are reported by each request instead,
// so a misconfigured store never prevents startup.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.URI == "" || s.config.Database == "" || s.config.Collection == "" {
		s.config.Logger.Warn("mongo store incompletely configured, requests will fail",
			"uri_set", s.config.URI != "", "database", s.config.Database, "collection", s.config.Collection)
	}
	return nil
}

// connect creates the shared client exactly once. The driver dials lazily, so
// a failure here is a configuration problem and is cached.
func (s *Store) connect() (*mongo.Client, error) {
	s.once.Do(func() {
		opts := options.Client().
			ApplyURI(s.config.URI).
			SetServerSelectionTimeout(s.config.Timeout).
			SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

		client, err := mongo.Connect(context.Background(), opts)
		if err != nil {
			s.connErr = fmt.Errorf("%w: mongo: connect: %w", core.ErrStoreUnavailable, err)
			return
		}
		s.indexMu.Lock()
		s.client = client
		s.connected = time.Now()
		s.indexMu.Unlock()
		s.config.Logger.Debug("mongo client created", "database", s.config.Database)
	})
	return s.client, s.connErr
}

// collection resolves the configured collection and makes sure the unique
// index on path exists.
func (s *Store) collection(ctx context.Context) (*mongo.Collection, error) {
	if s.config.URI == "" || s.config.Database == "" || s.config.Collection == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, ErrMissingNamespace)
	}
	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	coll := client.Database(s.config.Database).Collection(s.config.Collection)
	if err := s.ensureIndex(ctx, coll); err != nil {
		return nil, err
	}
	return coll, nil
}

func (s *Store) ensureIndex(ctx context.Context, coll *mongo.Collection) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.indexReady {
		return nil
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "path", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("path_unique"),
	})
	if err != nil {
		return fmt.Errorf("%w: mongo: create index: %w", core.ErrStoreUnavailable, err)
	}
	s.indexReady = true
	return nil
}

func (s *Store) Find(ctx context.Context, lookupKey string) (core.Record, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return core.Record{}, err
	}

	var doc document
	err = coll.FindOne(ctx, bson.M{"path": lookupKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: mongo: find: %w", core.ErrStoreUnavailable, err)
	}
	return doc.record()
}

func (s *Store) Insert(ctx context.Context, rec core.Record) (core.Record, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return core.Record{}, err
	}

	if _, err := coll.InsertOne(ctx, newDocument(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.Record{}, core.ErrConflict
		}
		return core.Record{}, fmt.Errorf("%w: mongo: insert: %w", core.ErrStoreUnavailable, err)
	}
	return s.Find(ctx, rec.LookupKey)
}

func (s *Store) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return core.Record{}, err
	}

	doc := newDocument(rec)
	update := bson.M{"$set": bson.M{"content": doc.Content, "lastModified": doc.LastModified}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var after document
	err = coll.FindOneAndUpdate(ctx, bson.M{"path": rec.LookupKey}, update, opts).Decode(&after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: mongo: update: %w", core.ErrStoreUnavailable, err)
	}
	return after.record()
}

func (s *Store) Delete(ctx context.Context, lookupKey string) error {
	coll, err := s.collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"path": lookupKey})
	if err != nil {
		return fmt.Errorf("%w: mongo: delete: %w", core.ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Close disconnects the shared client, if one was created.
func (s *Store) Close() error {
	s.indexMu.Lock()
	client := s.client
	s.indexMu.Unlock()
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()
	return client.Disconnect(ctx)
}

func newDocument(rec core.Record) document {
	return document{
		Path:         rec.LookupKey,
		Content:      rec.Ciphertext,
		LastModified: rec.LastModified.UTC().Format(core.TimestampLayout),
	}
}

func (d document) record() (core.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, d.LastModified)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: mongo: bad lastModified %q: %w", core.ErrStoreUnavailable, d.LastModified, err)
	}
	return core.Record{LookupKey: d.Path, Ciphertext: d.Content, LastModified: ts}, nil
}

// StoreState is the introspection snapshot of a mongo Store. The URI is left
// out because it may carry credentials.
type StoreState struct {
	Database   string     `json:"database"`
	Collection string     `json:"collection"`
	Connected  bool       `json:"connected"`
	Since      *time.Time `json:"since,omitempty"`
	IndexReady bool       `json:"index_ready"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	state := StoreState{
		Database:   s.config.Database,
		Collection: s.config.Collection,
		Connected:  s.client != nil,
		IndexReady: s.indexReady,
	}
	if s.client != nil {
		since := s.connected
		state.Since = &since
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "mongo" }

var (
	_ core.RecordStore             = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
