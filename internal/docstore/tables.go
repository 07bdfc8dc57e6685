package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

func (s *Store) ListTables(ctx context.Context, cafeID string) ([]model.Table, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "tableId", Value: 1}})
	return findAll(ctx, s.tables, bson.M{"cafeId": cafeID}, opts, tableDoc.model)
}

// SetTableBooked overwrites the booked flag; it does not compare the
// previous value.
func (s *Store) SetTableBooked(ctx context.Context, cafeID, tableID string, booked bool) error {
	res, err := s.tables.UpdateOne(ctx,
		bson.M{"cafeId": cafeID, "tableId": tableID},
		bson.M{"$set": bson.M{"booked": booked}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// WatchTables opens a change stream on the cafe's table documents and
// pushes the full table list once up front and again after each change.
// The stream is opened before the first read so no change is missed.
func (s *Store) WatchTables(ctx context.Context, cafeID string, fn func([]model.Table)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "fullDocument.cafeId", Value: cafeID}}}},
	}
	stream, err := s.tables.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer stream.Close(context.Background())

	tables, err := s.ListTables(ctx, cafeID)
	if err != nil {
		return err
	}
	fn(tables)

	for stream.Next(ctx) {
		tables, err := s.ListTables(ctx, cafeID)
		if err != nil {
			return err
		}
		fn(tables)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return stream.Err()
}
