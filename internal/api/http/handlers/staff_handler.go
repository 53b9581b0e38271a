package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/firm-service/internal/api/dto"
	"github.com/spec-kit/firm-service/internal/domain"
	"github.com/spec-kit/firm-service/internal/repository"
	"github.com/spec-kit/firm-service/internal/service"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// StaffHandler manages staff lifecycle endpoints.
type StaffHandler struct {
	service *service.StaffService
	repo    repository.StaffRepository
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService, repo repository.StaffRepository) *StaffHandler {
	return &StaffHandler{service: staffService, repo: repo}
}

// Hire POST /guilds/:guildID/staff.
func (h *StaffHandler) Hire(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.HireStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	member, err := h.service.Hire(c.UserContext(), actor, service.HireInput{
		GuildID:        actor.GuildID,
		UserID:         req.UserID,
		RobloxUsername: req.RobloxUsername,
		Role:           req.Role,
		Reason:         req.Reason,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": staffResponse(member)})
}

// Promote POST /guilds/:guildID/staff/:userID/promote.
func (h *StaffHandler) Promote(c *fiber.Ctx) error {
	return h.changeRole(c, true)
}

// Demote POST /guilds/:guildID/staff/:userID/demote.
func (h *StaffHandler) Demote(c *fiber.Ctx) error {
	return h.changeRole(c, false)
}

func (h *StaffHandler) changeRole(c *fiber.Ctx, promote bool) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.RoleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.RoleChangeInput{
		GuildID: actor.GuildID,
		UserID:  c.Params("userID"),
		NewRole: req.NewRole,
		Reason:  req.Reason,
	}

	var member *domain.StaffMember
	if promote {
		member, err = h.service.Promote(c.UserContext(), actor, input)
	} else {
		member, err = h.service.Demote(c.UserContext(), actor, input)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(member)})
}

// Fire POST /guilds/:guildID/staff/:userID/fire.
func (h *StaffHandler) Fire(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.FireStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	member, err := h.service.Fire(c.UserContext(), actor, service.FireInput{
		GuildID: actor.GuildID,
		UserID:  c.Params("userID"),
		Reason:  req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(member)})
}

// List GET /guilds/:guildID/staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	filter := repository.StaffFilter{GuildID: actor.GuildID}
	if role := c.Query("role"); role != "" {
		r := domain.StaffRole(role)
		if !r.Valid() {
			return apperrors.NewValidationError("unknown staff role", map[string]any{"role": role})
		}
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		s := domain.StaffStatus(status)
		filter.Status = &s
	}
	filter.Limit = queryInt(c, "limit", 50)
	filter.Offset = queryInt(c, "offset", 0)

	members, err := h.repo.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		items = append(items, staffResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func queryInt(c *fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func staffResponse(member *domain.StaffMember) dto.StaffResponse {
	history := make([]dto.PromotionRecordResponse, 0, len(member.PromotionHistory))
	for _, record := range member.PromotionHistory {
		history = append(history, dto.PromotionRecordResponse{
			FromRole:   record.FromRole,
			ToRole:     record.ToRole,
			ActorID:    record.ActorID,
			Timestamp:  record.Timestamp,
			Reason:     record.Reason,
			ActionType: record.ActionType,
		})
	}
	return dto.StaffResponse{
		ID:             member.ID,
		UserID:         member.UserID,
		RobloxUsername: member.RobloxUsername,
		Role:           member.Role,
		Status:         member.Status,
		HiredAt:        member.HiredAt,
		HiredBy:        member.HiredBy,
		History:        history,
		UpdatedAt:      member.UpdatedAt,
	}
}
