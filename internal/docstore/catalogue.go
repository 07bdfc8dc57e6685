package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

func (s *Store) ListCafes(ctx context.Context) ([]model.Cafe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return findAll(ctx, s.cafes, bson.M{}, opts, cafeDoc.model)
}

func (s *Store) GetCafe(ctx context.Context, id string) (model.Cafe, error) {
	return findOne(ctx, s.cafes, bson.M{"_id": id}, cafeDoc.model)
}

func (s *Store) ListMenu(ctx context.Context, cafeID string) ([]model.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	return findAll(ctx, s.menu, bson.M{"cafeId": cafeID}, opts, menuDoc.model)
}

func (s *Store) GetMenuItem(ctx context.Context, cafeID, itemID string) (model.MenuItem, error) {
	return findOne(ctx, s.menu, bson.M{"_id": itemID, "cafeId": cafeID}, menuDoc.model)
}

func (s *Store) ListVouchers(ctx context.Context) ([]model.Voucher, error) {
	opts := options.Find().SetSort(bson.D{{Key: "minimumSpend", Value: 1}, {Key: "_id", Value: 1}})
	return findAll(ctx, s.vouchers, bson.M{}, opts, voucherDoc.model)
}

func (s *Store) GetVoucher(ctx context.Context, id string) (model.Voucher, error) {
	return findOne(ctx, s.vouchers, bson.M{"_id": id}, voucherDoc.model)
}

func (s *Store) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll(ctx, s.payments, bson.M{}, opts, paymentDoc.model)
}

func (s *Store) GetPaymentMethod(ctx context.Context, id string) (model.PaymentMethod, error) {
	return findOne(ctx, s.payments, bson.M{"_id": id}, paymentDoc.model)
}

// Seed upserts every catalogue document with one bulk write per
// collection. Table documents only get their booked flag on insert.
func (s *Store) Seed(ctx context.Context, data store.SeedData) error {
	replace := func(id string, doc any) mongo.WriteModel {
		return mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true)
	}

	var cafes, menu, tables, vouchers, payments []mongo.WriteModel
	for _, c := range data.Cafes {
		cafes = append(cafes, replace(c.ID, cafeDoc{ID: c.ID, Name: c.Name, Address: c.Address, OpenHours: c.OpenHours, Image: c.Image}))
	}
	for _, m := range data.Menu {
		menu = append(menu, replace(m.ID, newMenuDoc(m)))
	}
	pos := make(map[string]int)
	for _, t := range data.Tables {
		id := tableDocID(t.CafeID, t.ID)
		tables = append(tables, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{
				"$set":         bson.M{"cafeId": t.CafeID, "tableId": t.ID, "position": pos[t.CafeID]},
				"$setOnInsert": bson.M{"booked": t.Booked},
			}).
			SetUpsert(true))
		pos[t.CafeID]++
	}
	for _, v := range data.Vouchers {
		vouchers = append(vouchers, replace(v.ID, newVoucherDoc(v)))
	}
	for _, p := range data.PaymentMethods {
		payments = append(payments, replace(p.ID, paymentDoc{ID: p.ID, Name: p.Name, Image: p.Image}))
	}

	writes := []struct {
		coll   *mongo.Collection
		models []mongo.WriteModel
	}{
		{s.cafes, cafes}, {s.menu, menu}, {s.tables, tables}, {s.vouchers, vouchers}, {s.payments, payments},
	}
	for _, w := range writes {
		if len(w.models) == 0 {
			continue
		}
		if _, err := w.coll.BulkWrite(ctx, w.models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("seed %s: %w", w.coll.Name(), err)
		}
	}
	s.log.Info("catalogue seeded", "cafes", len(cafes), "tables", len(tables), "menu", len(menu))
	return nil
}
