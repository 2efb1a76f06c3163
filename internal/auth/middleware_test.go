package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type stubResolver map[string]*domain.Actor

func (s stubResolver) BuildActor(ctx context.Context, employeeID string) (*domain.Actor, error) {
	actor, ok := s[employeeID]
	if !ok {
		return nil, apperrors.NewUnauthorized("employee not found")
	}
	return actor, nil
}

func newTestApp(tokens *TokenManager, resolver ActorResolver, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tokens, resolver).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor, _ := ActorFromContext(c)
		return c.SendString(actor.EmployeeID)
	})
	app.Get("/me", handlers...)
	return app
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", 5)
	token, expires, err := tokens.GenerateToken("E42")
	require.NoError(t, err)
	assert.False(t, expires.IsZero())

	claims, err := tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "E42", claims.Employee())

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", 5)
	resolver := stubResolver{"E1": {EmployeeID: "E1", Roles: domain.NewRoleSet(domain.RoleUnknown)}}
	app := newTestApp(tokens, resolver)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, _, err := tokens.GenerateToken("E1")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ghost, _, err := tokens.GenerateToken("E404")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+ghost)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	tokens := NewTokenManager("secret", 5)
	resolver := stubResolver{
		"E1": {EmployeeID: "E1", Roles: domain.NewRoleSet(domain.RoleUnknown)},
		"S1": {EmployeeID: "S1", Roles: domain.NewRoleSet(domain.RoleMISSupervisor, domain.RoleSupportTechnician)},
	}
	app := newTestApp(tokens, resolver, RequireRole(domain.RoleMISSupervisor))

	for id, want := range map[string]int{"E1": http.StatusForbidden, "S1": http.StatusOK} {
		token, _, err := tokens.GenerateToken(id)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, id)
	}
}
