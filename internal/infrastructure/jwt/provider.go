package jwtinfra

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/promo-claim/internal/domain"
)

// ErrDeviceMismatch is returned when a handoff token is presented by a device
// other than the one it was issued to.
var ErrDeviceMismatch = errors.New("handoff token issued to another device")

// Claims carries a finished claim result to the result view. Subject is the
// device the claim was made on.
type Claims struct {
	PrizeName string `json:"prize_name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies short-lived HS256 handoff tokens.
type Provider struct {
	secret []byte
	expiry time.Duration
}

// NewProvider creates a Provider. An empty secret is replaced by a random one,
// so tokens only survive as long as the process.
func NewProvider(secret string, expiry time.Duration) (*Provider, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate handoff secret: %w", err)
		}
	}
	return &Provider{secret: key, expiry: expiry}, nil
}

func (p *Provider) Sign(deviceID string, result domain.ClaimResult) (string, error) {
	now := time.Now()
	claims := Claims{
		PrizeName: result.PrizeName,
		PhotoURL:  result.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Verify checks the token and that it was issued to deviceID.
func (p *Provider) Verify(tokenStr, deviceID string) (*domain.ClaimResult, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject != deviceID {
		return nil, ErrDeviceMismatch
	}
	return &domain.ClaimResult{PrizeName: claims.PrizeName, PhotoURL: claims.PhotoURL}, nil
}
