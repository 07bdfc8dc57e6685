package docstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = s.now()
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	if _, err := s.users.InsertOne(ctx, newUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, apperr.ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return findOne(ctx, s.users, bson.M{"email": email}, userDoc.model)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return findOne(ctx, s.users, bson.M{"_id": id}, userDoc.model)
}

func (s *Store) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := s.tokens.InsertOne(ctx, tokenDoc{TokenHash: tokenHash, UserID: userID, ExpiresAt: exp.UTC()})
	return err
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var d tokenDoc
	if err := s.tokens.FindOne(ctx, bson.M{"_id": tokenHash}).Decode(&d); err != nil {
		return "", notFound(err)
	}
	if d.RevokedAt != nil || s.now().After(d.ExpiresAt) {
		return "", apperr.ErrNotFound
	}
	return d.UserID, nil
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := s.tokens.UpdateOne(ctx,
		bson.M{"_id": tokenHash, "revokedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revokedAt": s.now()}})
	return err
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.tokens.UpdateMany(ctx,
		bson.M{"userId": userID, "revokedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revokedAt": s.now()}})
	return err
}
