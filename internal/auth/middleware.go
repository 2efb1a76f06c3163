package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const actorKey = "auth_actor"

// ActorResolver turns an authenticated employee id into a request actor.
type ActorResolver interface {
	BuildActor(ctx context.Context, employeeID string) (*domain.Actor, error)
}

// AuthMiddleware validates bearer tokens and loads the actor for each request.
type AuthMiddleware struct {
	tokens *TokenManager
	actors ActorResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, actors ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, actors: actors}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	// Roles are derived from the directory on every request, never from the token.
	actor, err := m.actors.BuildActor(c.UserContext(), claims.Employee())
	if err != nil {
		return err
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (*domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	actor, ok := val.(*domain.Actor)
	return actor, ok
}
