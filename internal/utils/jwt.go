package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for refresh tokens
    "encoding/hex"
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any access token that fails parsing,
// signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access tokens.
// Only the SHA-256 hash of Raw is persisted.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Claims is the payload of an access token.  Subject carries the user id;
// Name is the display name used as the default reservation name.
type Claims struct {
    Role  string `json:"role"`
    Name  string `json:"name,omitempty"`
    Email string `json:"email,omitempty"`
    jwt.RegisteredClaims
}

// Subject identifies the user an access token is issued for.
type Subject struct {
    UserID string
    Role   string
    Name   string
    Email  string
}

// NewAccessToken builds and signs an HS256 JWT for sub that expires after
// ttlMin minutes.
func NewAccessToken(secret string, sub Subject, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := Claims{
        Role:  sub.Role,
        Name:  sub.Name,
        Email: sub.Email,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   sub.UserID,
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and returns its claims.  Only
// HMAC signing methods are accepted and a subject is required.
func ParseAccessToken(secret, raw string) (Claims, error) {
    var claims Claims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid || claims.Subject == "" {
        return Claims{}, ErrInvalidToken
    }
    return claims, nil
}

// NewRefreshToken returns a cryptographically secure random token and its
// expiration time, ttlDays from now.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
