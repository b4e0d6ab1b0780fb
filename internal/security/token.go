package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidAPIToken = errors.New("invalid or expired API token")

// GenerateInvitationToken creates an opaque single-use invitation token
func GenerateInvitationToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// APIClaims are the JWT claims carried by bearer tokens issued at login
type APIClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueAPIToken creates a signed bearer token for the given user
func IssueAPIToken(secret string, userID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := APIClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAPIToken validates a bearer token and returns its claims
func ParseAPIToken(secret, tokenString string) (*APIClaims, error) {
	claims := &APIClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidAPIToken
	}
	return claims, nil
}

// UserIDFromClaims extracts the numeric user id from the subject claim
func UserIDFromClaims(claims *APIClaims) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &id); err != nil {
		return 0, ErrInvalidAPIToken
	}
	return id, nil
}
