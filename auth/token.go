package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aanooo/erp-system/models"
)

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token is well formed but expired.
	ErrExpiredToken = errors.New("token has expired")
)

const tokenIssuer = "erp-system"

// Claims identifies the caller behind a verified bearer token.
type Claims struct {
	Subject  string `json:"sub"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type jwtClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens for local users.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for user.
func (i *TokenIssuer) Issue(user *models.User) (string, error) {
	now := i.now()
	claims := jwtClaims{
		Username: user.Username,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *TokenIssuer) Verify(_ context.Context, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &jwtClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Claims{Subject: claims.Subject, Username: claims.Username, Name: claims.Name}, nil
}

// Verifiers accepts a token if any of its members does.
type Verifiers []Verifier

func (vs Verifiers) Verify(ctx context.Context, raw string) (*Claims, error) {
	err := ErrInvalidToken
	for _, v := range vs {
		claims, verr := v.Verify(ctx, raw)
		if verr == nil {
			return claims, nil
		}
		if errors.Is(verr, ErrExpiredToken) {
			err = verr
		}
	}
	return nil, err
}
