package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/firm-service/internal/api/dto"
	"github.com/spec-kit/firm-service/internal/auth"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// AuthHandler exchanges the bot gateway's shared key for short-lived actor
// tokens.
type AuthHandler struct {
	tokens         *auth.TokenManager
	gatewayKeyHash string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *auth.TokenManager, gatewayKeyHash string) *AuthHandler {
	return &AuthHandler{tokens: tokens, gatewayKeyHash: gatewayKeyHash}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if h.gatewayKeyHash == "" {
		return apperrors.NewUnauthorized("gateway authentication not configured")
	}
	if err := auth.VerifyGatewayKey(h.gatewayKeyHash, req.GatewayKey); err != nil {
		return apperrors.NewUnauthorized("invalid gateway key")
	}
	if req.Actor.GuildID == "" || req.Actor.UserID == "" {
		return apperrors.NewValidationError("actor guild_id and user_id required", nil)
	}

	roleIDs := req.Actor.RoleIDs
	if roleIDs == nil {
		roleIDs = []string{}
	}
	token, expiresAt, err := h.tokens.GenerateToken(actorFromPayload(req.Actor, roleIDs))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{Token: token, ExpiresAt: expiresAt}})
}
