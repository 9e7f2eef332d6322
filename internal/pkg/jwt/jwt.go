package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Service validates bearer tokens issued to venue owners. Issuance lives with
// the identity provider; GenerateToken exists for tooling and tests.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	OwnerID int64  `json:"owner_id"`
	Role    string `json:"role"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

func (s *Service) GenerateToken(ownerID int64, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		OwnerID: ownerID,
		Role:    role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   fmt.Sprint(ownerID),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
