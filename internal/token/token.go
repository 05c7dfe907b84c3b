package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

const issuer = "autobuzz"

type Service interface {
	Issue(userID string) (string, error)
	Validate(token string) (string, error)
}

// HMACService issues HS256 access tokens whose subject is the user ID.
type HMACService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewHMACService(secret string, ttl time.Duration) (*HMACService, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *HMACService) Issue(userID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate returns the user ID carried by a valid, unexpired token.
func (s *HMACService) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case claims.Subject == "":
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
