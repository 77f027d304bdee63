package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/repository"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	session := domain.SessionContext{UserID: "u1", Role: domain.RoleOperator}

	token, expires, err := tm.GenerateToken(session)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, session, claims.Session())

	_, err = NewTokenManager("other", time.Minute).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	token, _, err := tm.GenerateToken(domain.SessionContext{UserID: "u1", Role: domain.RoleClient})
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	token, _, err := tm.GenerateToken(domain.SessionContext{UserID: "u1", Role: "PIRATE"})
	require.NoError(t, err)
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("cliente123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "cliente123"))
	assert.ErrorIs(t, ComparePassword(hash, "nope"), domain.ErrInvalidCredentials)
}

type stubUsers struct {
	repository.UserRepository
	users map[string]*domain.User
}

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.NotFound("user", id)
}

func TestMiddleware_GuardsRoutes(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	users := stubUsers{users: map[string]*domain.User{
		"op":  {ID: "op", Role: domain.RoleOperator, Active: true},
		"cli": {ID: "cli", Role: domain.RoleClient, Active: true},
		"off": {ID: "off", Role: domain.RoleOperator, Active: false},
	}}
	mw := NewAuthMiddleware(tm, users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/staff", mw.Handle, RequireStaff(), func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		return c.SendString(session.UserID)
	})

	token := func(id string, role domain.Role) string {
		tok, _, err := tm.GenerateToken(domain.SessionContext{UserID: id, Role: role})
		require.NoError(t, err)
		return "Bearer " + tok
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"operator", token("op", domain.RoleOperator), http.StatusOK},
		{"client", token("cli", domain.RoleClient), http.StatusForbidden},
		{"inactive", token("off", domain.RoleOperator), http.StatusUnauthorized},
		{"unknown user", token("ghost", domain.RoleAdmin), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
