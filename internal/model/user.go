package model

import "time"

// Role names carried in access tokens.
const (
    RoleCustomer = "CUSTOMER"
    RoleOwner    = "OWNER"
)

// User represents an account known to the identity layer.
//
// Fields:
//  ID           – store-assigned identifier (uid).
//  Email        – unique, lower-cased email address.
//  DisplayName  – name shown in the app and used as default reservation name.
//  PasswordHash – bcrypt hashed password; never serialised.
//  Role         – CUSTOMER or OWNER.
//  Photo        – optional URL or encoded image payload.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           string    `json:"id"`
    Email        string    `json:"email"`
    DisplayName  string    `json:"displayName"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    Photo        string    `json:"photo,omitempty"`
    CreatedAt    time.Time `json:"createdAt"`
}

// RefreshToken is a stored refresh token.  Only the SHA-256 hash of the
// raw value is kept.
type RefreshToken struct {
    UserID    string
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
}
