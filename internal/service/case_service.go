package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/firm-service/internal/domain"
	"github.com/spec-kit/firm-service/internal/events"
	"github.com/spec-kit/firm-service/internal/observability"
	"github.com/spec-kit/firm-service/internal/permission"
	"github.com/spec-kit/firm-service/internal/platform"
	"github.com/spec-kit/firm-service/internal/queue"
	"github.com/spec-kit/firm-service/internal/repository"
	"github.com/spec-kit/firm-service/internal/uow"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// CaseService coordinates the case lifecycle:
// pending --accept--> in_progress --close--> closed, with decline as the
// terminal rejection of a pending case. Mutations for the same case
// serialize on the operation queue; each transition commits atomically with
// its audit entry.
type CaseService struct {
	runner       txRunner
	queue        *queue.Queue
	guildConfigs repository.GuildConfigRepository
	platform     platform.Adapter
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	Queue           *queue.Queue
	UnitOfWork      uow.Factory
	Rollback        *uow.RollbackService
	GuildConfigRepo repository.GuildConfigRepository
	Platform        platform.Adapter
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		runner: txRunner{
			uow:      deps.UnitOfWork,
			rollback: deps.Rollback,
			metrics:  deps.Metrics,
			logger:   deps.Logger,
		},
		queue:        deps.Queue,
		guildConfigs: deps.GuildConfigRepo,
		platform:     deps.Platform,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// CreateCaseInput describes case creation.
type CreateCaseInput struct {
	GuildID        string
	ClientID       string
	ClientUsername string
	Title          string
	Description    string
	Priority       domain.CasePriority
}

// AssignLawyerInput describes adding a lawyer to a case.
type AssignLawyerInput struct {
	GuildID  string
	CaseID   string
	LawyerID string
}

// ReassignLawyerInput describes moving a lawyer between two cases.
type ReassignLawyerInput struct {
	GuildID    string
	FromCaseID string
	ToCaseID   string
	LawyerID   string
}

// CloseCaseInput describes closing a case.
type CloseCaseInput struct {
	GuildID     string
	CaseID      string
	Result      domain.CaseResult
	ResultNotes string
}

func caseQueueKey(guildID, caseID string) string {
	return fmt.Sprintf("case:%s:%s", guildID, caseID)
}

func caseCreateQueueKey(guildID string) string {
	return fmt.Sprintf("case-create:%s", guildID)
}

// CreateCase opens a new pending case, reserving the next sequence number
// for the guild and year.
func (s *CaseService) CreateCase(ctx context.Context, actor domain.ActorContext, input CreateCaseInput) (*domain.Case, error) {
	if err := permission.ValidateContext(actor); err != nil {
		return nil, err
	}
	if input.GuildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if strings.TrimSpace(input.ClientID) == "" || strings.TrimSpace(input.ClientUsername) == "" {
		return nil, apperrors.NewValidationError("client id and username are required", nil)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	cfg, err := s.loadConfig(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if !permission.Evaluate(actor, cfg, permission.ActionCreateCase) {
		return nil, apperrors.NewForbidden("not authorized to open cases")
	}

	var created *domain.Case
	taskErr := <-s.queue.Enqueue(ctx, caseCreateQueueKey(input.GuildID), actor.IsGuildOwner, func(ctx context.Context) error {
		return s.runner.withUnitOfWork(ctx, "case.create", input.GuildID, func(ctx context.Context, u uow.UnitOfWork) error {
			c, err := s.createTx(ctx, u, actor, input)
			if err != nil {
				return err
			}
			created = c
			return nil
		})
	})
	if taskErr != nil {
		return nil, taskErr
	}

	s.publish(ctx, events.Event{
		Type:    events.EventCaseOpened,
		GuildID: input.GuildID,
		ActorID: actor.UserID,
		Payload: events.CaseOpenedPayload{
			CaseID:     created.ID,
			CaseNumber: created.CaseNumber,
			ClientID:   created.ClientID,
			Priority:   created.Priority,
			Title:      created.Title,
		},
	})
	return created, nil
}

func (s *CaseService) createTx(ctx context.Context, u uow.UnitOfWork, actor domain.ActorContext, input CreateCaseInput) (*domain.Case, error) {
	year := s.now().Year()
	seq, err := u.Counters().IncrementAndGet(ctx, input.GuildID, year)
	if err != nil {
		return nil, err
	}
	caseNumber := fmt.Sprintf("%d-%04d-%s", year, seq, sanitizeClientHandle(input.ClientUsername))

	// channel creation is a platform side effect; archive it again if the
	// transaction does not survive
	channelID, err := s.platform.CreateCaseChannel(ctx, input.GuildID, caseNumber)
	if err != nil {
		return nil, fmt.Errorf("create case channel: %w", err)
	}
	s.registerChannelArchive(u.ID(), input.GuildID, channelID)

	priority := input.Priority
	if priority == "" {
		priority = domain.CasePriorityMedium
	}

	c := &domain.Case{
		GuildID:           input.GuildID,
		CaseNumber:        caseNumber,
		ClientID:          input.ClientID,
		ClientUsername:    input.ClientUsername,
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		Status:            domain.CaseStatusPending,
		Priority:          priority,
		ChannelID:         &channelID,
		AssignedLawyerIDs: []string{},
		Documents:         []domain.CaseDocument{},
		Notes:             []domain.CaseNote{},
	}
	if err := u.Cases().Create(ctx, c); err != nil {
		return nil, err
	}

	if err := u.Audit().Create(ctx, &domain.AuditEntry{
		GuildID:  input.GuildID,
		Action:   domain.AuditCaseCreated,
		ActorID:  actor.UserID,
		TargetID: c.ID,
		After:    caseSnapshot(c),
		Metadata: map[string]any{"case_number": caseNumber},
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// AcceptCase moves a pending case to in_progress, making the caller its lead
// attorney and sole assigned lawyer.
func (s *CaseService) AcceptCase(ctx context.Context, actor domain.ActorContext, caseID string) (*domain.Case, error) {
	updated, err := s.mutateCase(ctx, actor, caseID, permission.ActionAcceptCase, "case.accept",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.Status != domain.CaseStatusPending {
				if c.IsClosed() {
					return alreadyClosed(c)
				}
				return apperrors.NewBusinessRuleError(apperrors.CodeCaseNotPending,
					"case has already been accepted", map[string]any{"status": c.Status})
			}
			lead := actor.UserID
			c.Status = domain.CaseStatusInProgress
			c.LeadAttorneyID = &lead
			c.AssignedLawyerIDs = []string{lead}
			return nil
		}, domain.AuditCaseAccepted)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventCaseAccepted,
		GuildID: updated.GuildID,
		ActorID: actor.UserID,
		Payload: events.CaseAcceptedPayload{CaseID: updated.ID, LeadAttorneyID: actor.UserID},
	})
	return updated, nil
}

// AssignLawyer adds a lawyer to an open case without changing the lead.
func (s *CaseService) AssignLawyer(ctx context.Context, actor domain.ActorContext, input AssignLawyerInput) (*domain.Case, error) {
	if input.GuildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	updated, err := s.mutateCase(ctx, actor, input.CaseID, permission.ActionAssignCase, "case.assign",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.IsClosed() {
				return alreadyClosed(c)
			}
			if c.IsAssigned(input.LawyerID) {
				return apperrors.NewBusinessRuleError(apperrors.CodeAlreadyAssigned,
					"lawyer already assigned to this case", map[string]any{"lawyer_id": input.LawyerID})
			}
			if err := s.requireLawyer(ctx, u, c.GuildID, input.LawyerID); err != nil {
				return err
			}
			c.AssignedLawyerIDs = append(c.AssignedLawyerIDs, input.LawyerID)
			return nil
		}, domain.AuditLawyerAssigned)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventCaseAssigned,
		GuildID: updated.GuildID,
		ActorID: actor.UserID,
		Payload: events.CaseAssignedPayload{CaseID: updated.ID, LawyerID: input.LawyerID},
	})
	return updated, nil
}

// UnassignLawyer removes a lawyer from a case. When the lead attorney is
// removed and other lawyers remain, the earliest-assigned of them becomes
// the new lead, so an active case with lawyers is never leadless.
func (s *CaseService) UnassignLawyer(ctx context.Context, actor domain.ActorContext, guildID, caseID, lawyerID string) (*domain.Case, error) {
	if guildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	return s.mutateCase(ctx, actor, caseID, permission.ActionAssignCase, "case.unassign",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.IsClosed() {
				return alreadyClosed(c)
			}
			if !c.IsAssigned(lawyerID) {
				return apperrors.NewBusinessRuleError(apperrors.CodeNotAssigned,
					"lawyer is not assigned to this case", map[string]any{"lawyer_id": lawyerID})
			}

			remaining := make([]string, 0, len(c.AssignedLawyerIDs)-1)
			for _, id := range c.AssignedLawyerIDs {
				if id != lawyerID {
					remaining = append(remaining, id)
				}
			}
			c.AssignedLawyerIDs = remaining

			if c.LeadAttorneyID != nil && *c.LeadAttorneyID == lawyerID {
				if len(remaining) > 0 {
					newLead := remaining[0]
					c.LeadAttorneyID = &newLead
					if err := u.Audit().Create(ctx, &domain.AuditEntry{
						GuildID:  c.GuildID,
						Action:   domain.AuditLeadAttorneyChanged,
						ActorID:  actor.UserID,
						TargetID: c.ID,
						Before:   map[string]any{"lead_attorney_id": lawyerID},
						After:    map[string]any{"lead_attorney_id": newLead},
					}); err != nil {
						return err
					}
				} else {
					c.LeadAttorneyID = nil
				}
			}
			return nil
		}, domain.AuditLawyerUnassigned)
}

// ReassignLawyer atomically moves a lawyer from one case to another. Both
// case lanes are held for the duration, acquired in a fixed order so two
// opposite reassignments cannot deadlock.
func (s *CaseService) ReassignLawyer(ctx context.Context, actor domain.ActorContext, input ReassignLawyerInput) error {
	if err := permission.ValidateContext(actor); err != nil {
		return err
	}
	if input.GuildID != actor.GuildID {
		return apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if input.FromCaseID == input.ToCaseID {
		return apperrors.NewValidationError("source and destination case are the same", nil)
	}

	cfg, err := s.loadConfig(ctx, actor.GuildID)
	if err != nil {
		return err
	}
	if !permission.Evaluate(actor, cfg, permission.ActionAssignCase) {
		return apperrors.NewForbidden("not authorized to assign lawyers")
	}

	firstKey := caseQueueKey(input.GuildID, input.FromCaseID)
	secondKey := caseQueueKey(input.GuildID, input.ToCaseID)
	if secondKey < firstKey {
		firstKey, secondKey = secondKey, firstKey
	}

	return <-s.queue.Enqueue(ctx, firstKey, actor.IsGuildOwner, func(ctx context.Context) error {
		return <-s.queue.Enqueue(ctx, secondKey, actor.IsGuildOwner, func(ctx context.Context) error {
			return s.runner.withUnitOfWork(ctx, "case.reassign", input.GuildID, func(ctx context.Context, u uow.UnitOfWork) error {
				return s.reassignTx(ctx, u, actor, input)
			})
		})
	})
}

func (s *CaseService) reassignTx(ctx context.Context, u uow.UnitOfWork, actor domain.ActorContext, input ReassignLawyerInput) error {
	caseRepo := u.Cases()

	fromCase, err := s.loadCase(ctx, caseRepo, input.GuildID, input.FromCaseID)
	if err != nil {
		return err
	}
	toCase, err := s.loadCase(ctx, caseRepo, input.GuildID, input.ToCaseID)
	if err != nil {
		return err
	}

	if fromCase.IsClosed() {
		return alreadyClosed(fromCase)
	}
	if toCase.IsClosed() {
		return alreadyClosed(toCase)
	}
	if !fromCase.IsAssigned(input.LawyerID) {
		return apperrors.NewBusinessRuleError(apperrors.CodeNotAssigned,
			"lawyer is not assigned to the source case", map[string]any{"lawyer_id": input.LawyerID})
	}
	if toCase.IsAssigned(input.LawyerID) {
		return apperrors.NewBusinessRuleError(apperrors.CodeAlreadyAssigned,
			"lawyer already assigned to the destination case", map[string]any{"lawyer_id": input.LawyerID})
	}

	remaining := make([]string, 0, len(fromCase.AssignedLawyerIDs)-1)
	for _, id := range fromCase.AssignedLawyerIDs {
		if id != input.LawyerID {
			remaining = append(remaining, id)
		}
	}
	fromCase.AssignedLawyerIDs = remaining
	if fromCase.LeadAttorneyID != nil && *fromCase.LeadAttorneyID == input.LawyerID {
		if len(remaining) > 0 {
			newLead := remaining[0]
			fromCase.LeadAttorneyID = &newLead
		} else {
			fromCase.LeadAttorneyID = nil
		}
	}
	toCase.AssignedLawyerIDs = append(toCase.AssignedLawyerIDs, input.LawyerID)

	if err := caseRepo.Update(ctx, fromCase); err != nil {
		return err
	}
	if err := caseRepo.Update(ctx, toCase); err != nil {
		return err
	}

	return u.Audit().Create(ctx, &domain.AuditEntry{
		GuildID:  input.GuildID,
		Action:   domain.AuditLawyerReassigned,
		ActorID:  actor.UserID,
		TargetID: input.LawyerID,
		Metadata: map[string]any{
			"from_case_id": input.FromCaseID,
			"to_case_id":   input.ToCaseID,
		},
	})
}

// CloseCase finishes an in-progress case exactly once.
func (s *CaseService) CloseCase(ctx context.Context, actor domain.ActorContext, input CloseCaseInput) (*domain.Case, error) {
	if input.GuildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if !domain.ValidResult(input.Result) {
		return nil, apperrors.NewValidationError("unknown case result", map[string]any{"result": input.Result})
	}

	updated, err := s.mutateCase(ctx, actor, input.CaseID, permission.ActionCloseCase, "case.close",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.IsClosed() {
				return alreadyClosed(c)
			}
			if c.Status != domain.CaseStatusInProgress {
				return apperrors.NewBusinessRuleError(apperrors.CodeCaseNotOpen,
					"only an accepted case can be closed", map[string]any{"status": c.Status})
			}
			s.markClosed(c, actor.UserID, input.Result, input.ResultNotes)
			return nil
		}, domain.AuditCaseClosed)
	if err != nil {
		return nil, err
	}

	s.archiveChannel(ctx, updated)
	s.publish(ctx, events.Event{
		Type:    events.EventCaseClosed,
		GuildID: updated.GuildID,
		ActorID: actor.UserID,
		Payload: events.CaseClosedPayload{CaseID: updated.ID, Result: input.Result},
	})
	return updated, nil
}

// DeclineCase rejects a pending case, closing it with result dismissed.
func (s *CaseService) DeclineCase(ctx context.Context, actor domain.ActorContext, guildID, caseID, reason string) (*domain.Case, error) {
	if guildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	updated, err := s.mutateCase(ctx, actor, caseID, permission.ActionDeclineCase, "case.decline",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.IsClosed() {
				return alreadyClosed(c)
			}
			if c.Status != domain.CaseStatusPending {
				return apperrors.NewBusinessRuleError(apperrors.CodeCaseNotPending,
					"only a pending case can be declined", map[string]any{"status": c.Status})
			}
			s.markClosed(c, actor.UserID, domain.CaseResultDismissed, reason)
			return nil
		}, domain.AuditCaseDeclined)
	if err != nil {
		return nil, err
	}

	s.archiveChannel(ctx, updated)
	s.publish(ctx, events.Event{
		Type:    events.EventCaseClosed,
		GuildID: updated.GuildID,
		ActorID: actor.UserID,
		Payload: events.CaseClosedPayload{CaseID: updated.ID, Result: domain.CaseResultDismissed},
	})
	return updated, nil
}

// AddNote appends an annotation to an open case.
func (s *CaseService) AddNote(ctx context.Context, actor domain.ActorContext, guildID, caseID, content string, internal bool) (*domain.Case, error) {
	if guildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("note content is required", nil)
	}
	return s.mutateCase(ctx, actor, caseID, permission.ActionManageCase, "case.note",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.IsClosed() {
				return alreadyClosed(c)
			}
			c.Notes = append(c.Notes, domain.CaseNote{
				ID:        uuid.NewString(),
				Content:   strings.TrimSpace(content),
				AuthorID:  actor.UserID,
				Internal:  internal,
				CreatedAt: s.now(),
			})
			return nil
		}, domain.AuditCaseNoteAdded)
}

// AddDocument attaches a document reference to an open case.
func (s *CaseService) AddDocument(ctx context.Context, actor domain.ActorContext, guildID, caseID, title, url string) (*domain.Case, error) {
	if guildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(url) == "" {
		return nil, apperrors.NewValidationError("document title and url are required", nil)
	}
	return s.mutateCase(ctx, actor, caseID, permission.ActionManageCase, "case.document",
		func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error {
			if c.IsClosed() {
				return alreadyClosed(c)
			}
			c.Documents = append(c.Documents, domain.CaseDocument{
				ID:        uuid.NewString(),
				Title:     strings.TrimSpace(title),
				URL:       strings.TrimSpace(url),
				AddedBy:   actor.UserID,
				CreatedAt: s.now(),
			})
			return nil
		}, domain.AuditCaseDocumentAdded)
}

// mutateCase is the shared skeleton for single-case transitions: permission
// gate, queue lane, unit of work, state change, audit entry with before and
// after snapshots.
func (s *CaseService) mutateCase(ctx context.Context, actor domain.ActorContext, caseID, action, operation string, mutate func(ctx context.Context, u uow.UnitOfWork, c *domain.Case) error, auditAction string) (*domain.Case, error) {
	if err := permission.ValidateContext(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(caseID) == "" {
		return nil, apperrors.NewValidationError("case id is required", nil)
	}

	cfg, err := s.loadConfig(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if !permission.Evaluate(actor, cfg, action) {
		return nil, apperrors.NewForbidden("not authorized for this case operation")
	}

	var updated *domain.Case
	taskErr := <-s.queue.Enqueue(ctx, caseQueueKey(actor.GuildID, caseID), actor.IsGuildOwner, func(ctx context.Context) error {
		return s.runner.withUnitOfWork(ctx, operation, actor.GuildID, func(ctx context.Context, u uow.UnitOfWork) error {
			caseRepo := u.Cases()
			c, err := s.loadCase(ctx, caseRepo, actor.GuildID, caseID)
			if err != nil {
				return err
			}

			before := caseSnapshot(c)
			if err := mutate(ctx, u, c); err != nil {
				return err
			}
			if err := caseRepo.Update(ctx, c); err != nil {
				return err
			}
			if err := u.Audit().Create(ctx, &domain.AuditEntry{
				GuildID:  c.GuildID,
				Action:   auditAction,
				ActorID:  actor.UserID,
				TargetID: c.ID,
				Before:   before,
				After:    caseSnapshot(c),
			}); err != nil {
				return err
			}
			updated = c
			return nil
		})
	})
	if taskErr != nil {
		return nil, taskErr
	}
	return updated, nil
}

func (s *CaseService) loadCase(ctx context.Context, caseRepo repository.CaseRepository, guildID, caseID string) (*domain.Case, error) {
	c, err := caseRepo.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, err
	}
	// cases from other guilds are invisible, not forbidden
	if c.GuildID != guildID {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
	}
	return c, nil
}

// requireLawyer verifies the target holds an active position that may take
// case assignments.
func (s *CaseService) requireLawyer(ctx context.Context, u uow.UnitOfWork, guildID, lawyerID string) error {
	member, err := u.Staff().FindActiveByUser(ctx, guildID, lawyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewBusinessRuleError(apperrors.CodeNotALawyer,
				"target is not an active staff member", map[string]any{"lawyer_id": lawyerID})
		}
		return err
	}
	if !member.Role.IsLawyer() {
		return apperrors.NewBusinessRuleError(apperrors.CodeNotALawyer,
			"target role cannot take case assignments", map[string]any{"role": member.Role})
	}
	return nil
}

func (s *CaseService) markClosed(c *domain.Case, closedBy string, result domain.CaseResult, notes string) {
	now := s.now()
	c.Status = domain.CaseStatusClosed
	c.Result = &result
	c.ClosedAt = &now
	c.ClosedBy = &closedBy
	if notes != "" {
		c.ResultNotes = &notes
	}
}

// archiveChannel is a post-commit courtesy; the case is closed either way.
func (s *CaseService) archiveChannel(ctx context.Context, c *domain.Case) {
	if c.ChannelID == nil {
		return
	}
	if err := s.platform.ArchiveChannel(ctx, c.GuildID, *c.ChannelID); err != nil {
		s.logger.Warn("archive case channel failed",
			zap.String("case_id", c.ID),
			zap.String("channel_id", *c.ChannelID),
			zap.Error(err),
		)
	}
}

func (s *CaseService) registerChannelArchive(txID, guildID, channelID string) {
	s.runner.rollback.Register(txID, uow.Compensation{
		ID:   uuid.NewString(),
		Kind: "archive_case_channel",
		Execute: func(ctx context.Context) error {
			return s.platform.ArchiveChannel(ctx, guildID, channelID)
		},
	})
}

func (s *CaseService) loadConfig(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	cfg, err := s.guildConfigs.GetByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError(err)
	}
	return cfg, nil
}

func (s *CaseService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func alreadyClosed(c *domain.Case) error {
	return apperrors.NewBusinessRuleError(apperrors.CodeCaseAlreadyClosed,
		"case is already closed", map[string]any{"case_id": c.ID, "case_number": c.CaseNumber})
}

func caseSnapshot(c *domain.Case) map[string]any {
	if c == nil {
		return nil
	}
	snapshot := map[string]any{
		"case_number":         c.CaseNumber,
		"status":              c.Status,
		"priority":            c.Priority,
		"assigned_lawyer_ids": append([]string{}, c.AssignedLawyerIDs...),
	}
	if c.LeadAttorneyID != nil {
		snapshot["lead_attorney_id"] = *c.LeadAttorneyID
	}
	if c.Result != nil {
		snapshot["result"] = *c.Result
	}
	return snapshot
}

// sanitizeClientHandle strips everything but letters and digits for the
// case-number suffix.
func sanitizeClientHandle(handle string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(handle) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	if b.Len() == 0 {
		return "client"
	}
	return b.String()
}
