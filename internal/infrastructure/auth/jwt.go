// Package auth validates the bearer tokens issued by the identity provider.
// Token issuance belongs to that provider; GenerateAccessToken exists for
// local tooling and tests.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/infrastructure/config"
)

// Token validation errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingRole      = errors.New("missing role in claims")
)

// Claims carries the caller's identity and roles
type Claims struct {
	jwt.RegisteredClaims
	UserID          string   `json:"user_id"`
	Email           string   `json:"email,omitempty"`
	Role            string   `json:"role"`
	AdditionalRoles []string `json:"additional_roles,omitempty"`
}

// UserUUID parses the user ID
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// Actor converts the claims into the domain caller. Unknown roles are dropped.
func (c *Claims) Actor() (identity.Actor, error) {
	id, err := c.UserUUID()
	if err != nil {
		return identity.Actor{}, ErrInvalidClaims
	}
	return identity.NewActor(id, c.Role, c.AdditionalRoles), nil
}

// ExpiresAtTime returns the expiry, or the zero time when absent
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// JWTService validates HS256 access tokens
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a JWT service from configuration
func NewJWTService(cfg config.JWTConfig) *JWTService {
	exp := cfg.AccessTokenExpiration
	if exp <= 0 {
		exp = 15 * time.Minute
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: exp,
		now:        time.Now,
	}
}

// TokenInput describes the subject of a generated token
type TokenInput struct {
	UserID          uuid.UUID
	Email           string
	Role            identity.Role
	AdditionalRoles []identity.Role
}

// GenerateAccessToken signs an access token for input. It returns the token
// and its expiry.
func (s *JWTService) GenerateAccessToken(input TokenInput) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)

	additional := make([]string, len(input.AdditionalRoles))
	for i, r := range input.AdditionalRoles {
		additional[i] = string(r)
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:          input.UserID.String(),
		Email:           input.Email,
		Role:            string(input.Role),
		AdditionalRoles: additional,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies the signature, time window and issuer of
// tokenString and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if claims.Role == "" {
		return nil, ErrMissingRole
	}
	return claims, nil
}

// AccessTokenExpiration returns the lifetime of generated tokens
func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.expiration
}
