package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/firm-service/internal/api/dto"
	"github.com/spec-kit/firm-service/internal/domain"
	"github.com/spec-kit/firm-service/internal/repository"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// GuildHandler manages guild configuration and the audit trail.
type GuildHandler struct {
	configs repository.GuildConfigRepository
	audits  repository.AuditLogRepository
}

// NewGuildHandler constructs handler.
func NewGuildHandler(configs repository.GuildConfigRepository, audits repository.AuditLogRepository) *GuildHandler {
	return &GuildHandler{configs: configs, audits: audits}
}

// PutConfig PUT /guilds/:guildID/config. Owner only.
func (h *GuildHandler) PutConfig(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.GuildConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	for role := range req.RoleLimits {
		if !role.Valid() {
			return apperrors.NewValidationError("unknown staff role in limits", map[string]any{"role": role})
		}
	}

	cfg := &domain.GuildConfig{
		GuildID:     actor.GuildID,
		Permissions: req.Permissions,
		AdminRoles:  req.AdminRoles,
		AdminUsers:  req.AdminUsers,
		RoleLimits:  req.RoleLimits,
		UpdatedAt:   time.Now(),
	}
	if err := h.configs.Upsert(c.UserContext(), cfg); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": configResponse(cfg)})
}

// GetConfig GET /guilds/:guildID/config.
func (h *GuildHandler) GetConfig(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	cfg, err := h.configs.GetByGuild(c.UserContext(), actor.GuildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("guild configuration", nil)
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": configResponse(cfg)})
}

// ListAudit GET /guilds/:guildID/audit.
func (h *GuildHandler) ListAudit(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	filter := repository.AuditFilter{GuildID: actor.GuildID}
	if actorID := c.Query("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if targetID := c.Query("target_id"); targetID != "" {
		filter.TargetID = &targetID
	}
	if action := c.Query("action"); action != "" {
		filter.Action = &action
	}
	filter.Limit = queryInt(c, "limit", 100)
	filter.Offset = queryInt(c, "offset", 0)

	entries, err := h.audits.FindByFilters(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			TargetID:  entry.TargetID,
			Before:    entry.Before,
			After:     entry.After,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func configResponse(cfg *domain.GuildConfig) dto.GuildConfigResponse {
	return dto.GuildConfigResponse{
		GuildID:     cfg.GuildID,
		Permissions: cfg.Permissions,
		AdminRoles:  cfg.AdminRoles,
		AdminUsers:  cfg.AdminUsers,
		RoleLimits:  cfg.RoleLimits,
		UpdatedAt:   cfg.UpdatedAt,
	}
}
