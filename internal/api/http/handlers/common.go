package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/firm-service/internal/api/dto"
	"github.com/spec-kit/firm-service/internal/auth"
	"github.com/spec-kit/firm-service/internal/domain"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

func actorFromPayload(p dto.ActorPayload, roleIDs []string) domain.ActorContext {
	return domain.ActorContext{
		GuildID:      p.GuildID,
		UserID:       p.UserID,
		RoleIDs:      roleIDs,
		IsGuildOwner: p.IsGuildOwner,
	}
}

// requireActor pulls the authenticated actor and checks it belongs to the
// guild named in the route.
func requireActor(c *fiber.Ctx) (domain.ActorContext, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.ActorContext{}, apperrors.NewUnauthorized("authentication required")
	}
	if guildID := c.Params("guildID"); guildID != "" && guildID != actor.GuildID {
		return domain.ActorContext{}, apperrors.NewForbidden("token is scoped to a different guild")
	}
	return actor, nil
}
