// Package mongostore implements store.Store on MongoDB multi-document
// transactions. MongoDB transactions require a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"trade-ledger/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Store is a store.Store over one MongoDB database. Document structs must
// map their id to the _id field.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

// New wraps a connected client. The client must be built with NewRegistry.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, database: client.Database(database)}
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	return getDocument(ctx, s.database, collection, id, dst)
}

// Query implements store.Reader.
func (s *Store) Query(ctx context.Context, collection string, q store.Query, dst any) error {
	return queryDocuments(ctx, s.database, collection, q, dst)
}

// RunTransaction implements store.Store. Unlike session.WithTransaction it
// runs fn exactly once; retries belong to store.RunWithRetry.
func (s *Store) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txOpts); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(sc, store.Guard(&mongoTx{database: s.database})); err != nil {
			_ = session.AbortTransaction(context.Background())
			return err
		}
		if err := session.CommitTransaction(sc); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", mapError(err))
		}
		return nil
	})
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoTx issues every operation on the session context passed through ctx.
type mongoTx struct {
	database *mongo.Database
}

func (t *mongoTx) Get(ctx context.Context, collection, id string, dst any) error {
	return getDocument(ctx, t.database, collection, id, dst)
}

func (t *mongoTx) Query(ctx context.Context, collection string, q store.Query, dst any) error {
	return queryDocuments(ctx, t.database, collection, q, dst)
}

func (t *mongoTx) Set(ctx context.Context, collection, id string, doc any) error {
	_, err := t.database.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

func (t *mongoTx) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	res, err := t.database.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return fmt.Errorf("failed to increment %s of %s/%s: %w", field, collection, id, mapError(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func (t *mongoTx) Delete(ctx context.Context, collection, id string) error {
	res, err := t.database.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, mapError(err))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func getDocument(ctx context.Context, db *mongo.Database, collection, id string, dst any) error {
	err := db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(dst)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
		}
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

func queryDocuments(ctx context.Context, db *mongo.Database, collection string, q store.Query, dst any) error {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, mapError(err))
	}
	if err := cursor.All(ctx, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, mapError(err))
	}
	return nil
}

// mapError translates transient transaction failures into store.ErrConflict.
func mapError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorLabel("TransientTransactionError") ||
			se.HasErrorLabel("UnknownTransactionCommitResult") ||
			se.HasErrorCode(112) { // WriteConflict
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		}
	}
	return err
}
