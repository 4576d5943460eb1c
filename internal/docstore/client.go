// Package docstore is the MongoDB backend for the profile, inbox, chat, Q&A
// and idempotency repositories. It mirrors the contracts of package repo so
// the service layer is unaware of which store is configured: lookups that
// miss return repo.ErrNotFound and unique-index violations return
// repo.ErrDuplicate.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/tbourn/anonote-backend/internal/repo"
)

// Collection names.
const (
	collUsers       = "users"
	collMessages    = "messages"
	collChat        = "global_chat"
	collQuestions   = "questions"
	collReplies     = "question_replies"
	collIdempotency = "idempotency"
)

// Client wraps mongo.Client and the application database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, verifies the connection with a ping and selects
// database dbName.
func New(ctx context.Context, uri, dbName string) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Client{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes every store relies on. It is safe to call
// on every start.
//
//   - users.username: unique among documents that have a string username, so
//     any number of anonymous stubs may coexist.
//   - messages (recipient_id, timestamp desc): inbox listing.
//   - global_chat / questions timestamp desc: recent feeds.
//   - question_replies (question_id, timestamp): thread listing.
//   - idempotency (scope, key) unique, expires_at TTL.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	users := []mongo.IndexModel{{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetName("ux_users_username").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
	}}
	if _, err := c.db.Collection(collUsers).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	if _, err := c.db.Collection(collMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "timestamp", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create messages indexes: %w", err)
	}

	for _, name := range []string{collChat, collQuestions} {
		if _, err := c.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		}); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}

	if _, err := c.db.Collection(collReplies).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "question_id", Value: 1}, {Key: "timestamp", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create replies indexes: %w", err)
	}

	idem := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "scope", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetName("ux_scope_key").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := c.db.Collection(collIdempotency).Indexes().CreateMany(ctx, idem); err != nil {
		return fmt.Errorf("create idempotency indexes: %w", err)
	}
	return nil
}

// Store implements every repository contract on top of one database.
type Store struct {
	users       *mongo.Collection
	messages    *mongo.Collection
	chat        *mongo.Collection
	questions   *mongo.Collection
	replies     *mongo.Collection
	idempotency *mongo.Collection
}

// Store returns a repository facade bound to this client's database.
func (c *Client) Store() *Store {
	return &Store{
		users:       c.db.Collection(collUsers),
		messages:    c.db.Collection(collMessages),
		chat:        c.db.Collection(collChat),
		questions:   c.db.Collection(collQuestions),
		replies:     c.db.Collection(collReplies),
		idempotency: c.db.Collection(collIdempotency),
	}
}

// mapErr translates driver errors into the shared repository sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repo.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repo.ErrDuplicate
	default:
		return err
	}
}

// latest returns the document count matching filter and the greatest value of
// field among them.
func latest(ctx context.Context, coll *mongo.Collection, filter bson.M, field string) (int64, int64, error) {
	count, err := coll.CountDocuments(ctx, filter)
	if err != nil || count == 0 {
		return 0, 0, err
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetProjection(bson.M{field: 1})
	var row bson.M
	if err := coll.FindOne(ctx, filter, opts).Decode(&row); err != nil {
		return 0, 0, mapErr(err)
	}
	return count, asInt64(row[field]), nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
