package docstore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

func (s *Store) CreateReservation(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	if r.SelectedTables == nil {
		r.SelectedTables = []string{}
	}
	if _, err := s.reservations.InsertOne(ctx, newReservationDoc(r)); err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	return findOne(ctx, s.reservations, bson.M{"_id": id}, reservationDoc.model)
}

func (s *Store) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll(ctx, s.reservations, bson.M{"userId": userID}, opts, reservationDoc.model)
}

// CreateOrder appends one document to the history collection.
func (s *Store) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o.ID = uuid.NewString()
	o.Timestamp = s.now()
	if o.Status == "" {
		o.Status = model.OrderStatusActive
	}
	if o.Items == nil {
		o.Items = []model.OrderLine{}
	}
	if _, err := s.history.InsertOne(ctx, newOrderDoc(o)); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	return findAll(ctx, s.history, bson.M{"userId": userID}, opts, orderDoc.model)
}
