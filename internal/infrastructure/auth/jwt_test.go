package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars!!"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "trainhub-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(TokenInput{
		UserID:          userID,
		Email:           "fin@trainhub.test",
		Role:            identity.RoleCoordinator,
		AdditionalRoles: []identity.Role{identity.RoleFinance},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "coordinator", claims.Role)
	assert.Equal(t, []string{"finance"}, claims.AdditionalRoles)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAtTime().Unix())

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.True(t, actor.Can(identity.CapInvoiceIssue), "additional finance role grants issue")
}

func TestJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	assert.Equal(t, 15*time.Minute, svc.AccessTokenExpiration())
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateAccessToken(TokenInput{UserID: uuid.New(), Role: identity.RoleFinance})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "trainhub-test",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			UserID: uuid.NewString(),
			Role:   "finance",
		}
	}

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	noUser := base()
	noUser.UserID = ""
	badUser := base()
	badUser.UserID = "not-a-uuid"
	noRole := base()
	noRole.Role = ""
	future := base()
	future.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", sign(base(), jwt.SigningMethodHS256, []byte("other-secret")), ErrInvalidToken},
		{"wrong algorithm", sign(base(), jwt.SigningMethodHS512, []byte(testSecret)), ErrInvalidToken},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret)), ErrInvalidToken},
		{"not yet valid", sign(future, jwt.SigningMethodHS256, []byte(testSecret)), ErrTokenNotYetValid},
		{"missing user", sign(noUser, jwt.SigningMethodHS256, []byte(testSecret)), ErrMissingUserID},
		{"bad user id", sign(badUser, jwt.SigningMethodHS256, []byte(testSecret)), ErrInvalidClaims},
		{"missing role", sign(noRole, jwt.SigningMethodHS256, []byte(testSecret)), ErrMissingRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClaims_ActorDropsUnknownRoles(t *testing.T) {
	c := &Claims{UserID: uuid.NewString(), Role: "trainer", AdditionalRoles: []string{"marketing", "wizard"}}
	actor, err := c.Actor()
	require.NoError(t, err)
	assert.Equal(t, []identity.Role{identity.RoleTrainer, identity.RoleMarketing}, actor.Roles())

	_, err = (&Claims{UserID: "x"}).Actor()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
