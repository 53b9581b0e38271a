package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/firm-service/internal/api/dto"
	"github.com/spec-kit/firm-service/internal/domain"
	"github.com/spec-kit/firm-service/internal/repository"
	"github.com/spec-kit/firm-service/internal/service"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// CasesHandler manages case lifecycle endpoints.
type CasesHandler struct {
	service *service.CaseService
	repo    repository.CaseRepository
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService, repo repository.CaseRepository) *CasesHandler {
	return &CasesHandler{service: caseService, repo: repo}
}

// Create POST /guilds/:guildID/cases.
func (h *CasesHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	created, err := h.service.CreateCase(c.UserContext(), actor, service.CreateCaseInput{
		GuildID:        actor.GuildID,
		ClientID:       req.ClientID,
		ClientUsername: req.ClientUsername,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": caseResponse(created)})
}

// Accept POST /guilds/:guildID/cases/:caseID/accept.
func (h *CasesHandler) Accept(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	updated, err := h.service.AcceptCase(c.UserContext(), actor, c.Params("caseID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// Decline POST /guilds/:guildID/cases/:caseID/decline.
func (h *CasesHandler) Decline(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.DeclineCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.DeclineCase(c.UserContext(), actor, actor.GuildID, c.Params("caseID"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// Assign POST /guilds/:guildID/cases/:caseID/assign.
func (h *CasesHandler) Assign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignLawyerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.AssignLawyer(c.UserContext(), actor, service.AssignLawyerInput{
		GuildID:  actor.GuildID,
		CaseID:   c.Params("caseID"),
		LawyerID: req.LawyerID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// Unassign POST /guilds/:guildID/cases/:caseID/unassign.
func (h *CasesHandler) Unassign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignLawyerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.UnassignLawyer(c.UserContext(), actor, actor.GuildID, c.Params("caseID"), req.LawyerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// Reassign POST /guilds/:guildID/cases/reassign.
func (h *CasesHandler) Reassign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ReassignLawyerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ReassignLawyer(c.UserContext(), actor, service.ReassignLawyerInput{
		GuildID:    actor.GuildID,
		FromCaseID: req.FromCaseID,
		ToCaseID:   req.ToCaseID,
		LawyerID:   req.LawyerID,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reassigned": true}})
}

// Close POST /guilds/:guildID/cases/:caseID/close.
func (h *CasesHandler) Close(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CloseCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.CloseCase(c.UserContext(), actor, service.CloseCaseInput{
		GuildID:     actor.GuildID,
		CaseID:      c.Params("caseID"),
		Result:      req.Result,
		ResultNotes: req.ResultNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// AddNote POST /guilds/:guildID/cases/:caseID/notes.
func (h *CasesHandler) AddNote(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.AddNote(c.UserContext(), actor, actor.GuildID, c.Params("caseID"), req.Content, req.Internal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// AddDocument POST /guilds/:guildID/cases/:caseID/documents.
func (h *CasesHandler) AddDocument(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AddDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.AddDocument(c.UserContext(), actor, actor.GuildID, c.Params("caseID"), req.Title, req.URL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// Get GET /guilds/:guildID/cases/:caseID.
func (h *CasesHandler) Get(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	found, err := h.repo.GetByID(c.UserContext(), c.Params("caseID"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("case", nil)
		}
		return apperrors.MapError(err)
	}
	if found.GuildID != actor.GuildID {
		return apperrors.NewNotFound("case", nil)
	}
	return c.JSON(fiber.Map{"data": caseResponse(found)})
}

// List GET /guilds/:guildID/cases.
func (h *CasesHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	filter := repository.CaseFilter{GuildID: actor.GuildID}
	if clientID := c.Query("client_id"); clientID != "" {
		filter.ClientID = &clientID
	}
	if lawyerID := c.Query("lawyer_id"); lawyerID != "" {
		filter.LawyerID = &lawyerID
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.CaseStatus{domain.CaseStatus(status)}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.Limit = queryInt(c, "limit", 50)
	filter.Offset = queryInt(c, "offset", 0)

	found, err := h.repo.ListWithFilter(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.CaseResponse, 0, len(found))
	for i := range found {
		items = append(items, caseResponse(&found[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func caseResponse(c *domain.Case) dto.CaseResponse {
	documents := make([]dto.CaseDocumentResponse, 0, len(c.Documents))
	for _, doc := range c.Documents {
		documents = append(documents, dto.CaseDocumentResponse{
			ID:        doc.ID,
			Title:     doc.Title,
			URL:       doc.URL,
			AddedBy:   doc.AddedBy,
			CreatedAt: doc.CreatedAt,
		})
	}
	notes := make([]dto.CaseNoteResponse, 0, len(c.Notes))
	for _, note := range c.Notes {
		notes = append(notes, dto.CaseNoteResponse{
			ID:        note.ID,
			Content:   note.Content,
			AuthorID:  note.AuthorID,
			Internal:  note.Internal,
			CreatedAt: note.CreatedAt,
		})
	}
	return dto.CaseResponse{
		ID:                c.ID,
		CaseNumber:        c.CaseNumber,
		ClientID:          c.ClientID,
		ClientUsername:    c.ClientUsername,
		Title:             c.Title,
		Description:       c.Description,
		Status:            c.Status,
		Priority:          c.Priority,
		LeadAttorneyID:    c.LeadAttorneyID,
		AssignedLawyerIDs: c.AssignedLawyerIDs,
		ChannelID:         c.ChannelID,
		Result:            c.Result,
		ResultNotes:       c.ResultNotes,
		ClosedAt:          c.ClosedAt,
		ClosedBy:          c.ClosedBy,
		Documents:         documents,
		Notes:             notes,
		OpenedAt:          c.OpenedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
