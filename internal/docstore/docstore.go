// Package docstore is the MongoDB storage backend. It mirrors the
// collection layout of the mobile client's document database and is the
// only backend with a native change feed for table availability.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// Collection names.
const (
	CafesCollection          = "cafes"
	MenuCollection           = "menu"
	TablesCollection         = "tables"
	ReservationsCollection   = "reservations"
	HistoryCollection        = "history"
	VoucherCollection        = "voucher"
	PaymentCollection        = "payment"
	UsersCollection          = "users"
	RefreshTokensCollection  = "refresh_tokens"
	defaultDatabase          = "cafe_reservation"
	defaultConnectionTimeout = 10 * time.Second
)

// Options locate the database.
type Options struct {
	URL      string
	Database string
}

// Store implements store.Backend and store.TableWatcher on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
	now    func() time.Time

	cafes, menu, tables, reservations, history *mongo.Collection
	vouchers, payments, users, tokens          *mongo.Collection
}

var (
	_ store.Backend      = (*Store)(nil)
	_ store.TableWatcher = (*Store)(nil)
)

// Open connects, pings and ensures indexes.
func Open(ctx context.Context, o Options, log *slog.Logger) (*Store, error) {
	log = logging.OrDiscard(log)
	url := o.URL
	if url == "" {
		url = "mongodb://localhost:27017"
	}
	name := o.Database
	if name == "" {
		name = defaultDatabase
	}

	clientOptions := options.Client().ApplyURI(url).
		SetConnectTimeout(defaultConnectionTimeout).
		SetServerSelectionTimeout(defaultConnectionTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s := newStore(client, client.Database(name), log)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("connected to MongoDB", "database", name)
	return s, nil
}

func newStore(client *mongo.Client, db *mongo.Database, log *slog.Logger) *Store {
	return &Store{
		client:       client,
		db:           db,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
		cafes:        db.Collection(CafesCollection),
		menu:         db.Collection(MenuCollection),
		tables:       db.Collection(TablesCollection),
		reservations: db.Collection(ReservationsCollection),
		history:      db.Collection(HistoryCollection),
		vouchers:     db.Collection(VoucherCollection),
		payments:     db.Collection(PaymentCollection),
		users:        db.Collection(UsersCollection),
		tokens:       db.Collection(RefreshTokensCollection),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.tables, mongo.IndexModel{
			Keys:    bson.D{{Key: "cafeId", Value: 1}, {Key: "tableId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.menu, mongo.IndexModel{Keys: bson.D{{Key: "cafeId", Value: 1}}}},
		{s.reservations, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.history, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}}},
		{s.users, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.tokens, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("cannot create index on %s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	s.log.Info("disconnected from MongoDB")
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.ErrNotFound
	}
	return err
}

// findAll decodes every document matched by filter into T and converts
// it with conv.
func findAll[D any, T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, conv func(D) (T, error)) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := conv(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func findOne[D any, T any](ctx context.Context, coll *mongo.Collection, filter any, conv func(D) (T, error)) (T, error) {
	var d D
	if err := coll.FindOne(ctx, filter).Decode(&d); err != nil {
		var zero T
		return zero, notFound(err)
	}
	return conv(d)
}
