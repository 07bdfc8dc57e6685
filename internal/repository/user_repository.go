package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// CreateUser inserts an account with a normalised email. The password
// must already be hashed.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = s.now()
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, display_name, password_hash, role, photo, created_at) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role, u.Photo, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, apperr.ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetUserByEmail fetches a user by normalised email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id,email,display_name,password_hash,role,photo,created_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Photo, &u.CreatedAt)
	return u, notFound(err)
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id,email,display_name,password_hash,role,photo,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Photo, &u.CreatedAt)
	return u, notFound(err)
}
