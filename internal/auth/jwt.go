package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Permanently/sessionbook/internal/domain"
)

// Claims holds the JWT token payload: the owner scope every storage and
// subscription call is filtered by.
type Claims struct {
	jwt.RegisteredClaims
	UID         string `json:"uid"`
	WorkspaceID string `json:"wid,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueToken creates a signed access token carrying the owner scope.
func IssueToken(secret string, owner domain.OwnerScope, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "sessionbook",
		},
		UID:         owner.UID,
		WorkspaceID: owner.WorkspaceID,
		Email:       owner.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a token string, returning the owner
// scope it carries.
func ValidateToken(secret, tokenString string) (domain.OwnerScope, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.OwnerScope{}, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if claims.UID == "" {
		return domain.OwnerScope{}, fmt.Errorf("auth.ValidateToken: missing uid: %w", ErrInvalidToken)
	}

	return domain.OwnerScope{
		UID:         claims.UID,
		WorkspaceID: claims.WorkspaceID,
		Email:       claims.Email,
	}, nil
}
