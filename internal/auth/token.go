package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

const issuer = "sentinel-console"

var ErrInvalidToken = errors.New("invalid or expired session token")

// TokenManager signs and verifies the session cookie token
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// TokenOption configures a TokenManager
type TokenOption func(*TokenManager)

// WithClock sets the time source used to check expiry
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) { tm.now = now }
}

func NewTokenManager(secret string, opts ...TokenOption) *TokenManager {
	tm := &TokenManager{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Issue signs a token for the session. It expires with the session.
func (tm *TokenManager) Issue(s *models.Session) (string, error) {
	claims := &models.SessionClaims{
		SessionID: s.ID,
		Username:  s.Username,
		Role:      s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Issuer:    issuer,
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			NotBefore: jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry
func (tm *TokenManager) Validate(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return tm.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
