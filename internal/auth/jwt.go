package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"storefront/catalog/internal/config"
	"storefront/catalog/internal/domain"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Claims is the token payload issued by the identity service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller as far as this service cares: who, and whether they administer the catalog.
type Identity struct {
	Subject string
	Role    Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type Verifier interface {
	Verify(token string) (*Identity, error)
}

type jwtVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewVerifier(cfg config.AuthConfig) Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &jwtVerifier{
		secret: []byte(cfg.JWTSecret),
		opts:   opts,
	}
}

func (v *jwtVerifier) Verify(tokenString string) (*Identity, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("token verification is not configured: %w", domain.ErrUnauthorized)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", errors.Join(domain.ErrUnauthorized, err))
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	role := RoleUser
	if Role(claims.Role) == RoleAdmin {
		role = RoleAdmin
	}

	return &Identity{Subject: claims.Subject, Role: role}, nil
}
