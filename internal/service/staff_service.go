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

// StaffService coordinates the staff lifecycle: hire, promote, demote, fire.
// Every mutation runs through the operation queue keyed by
// (guild, target user) and inside a unit of work, so capacity checks never
// race and history/audit writes land atomically with the record change.
type StaffService struct {
	runner       txRunner
	queue        *queue.Queue
	guildConfigs repository.GuildConfigRepository
	platform     platform.Adapter
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// StaffDependencies bundles collaborators for the staff service.
type StaffDependencies struct {
	Queue           *queue.Queue
	UnitOfWork      uow.Factory
	Rollback        *uow.RollbackService
	GuildConfigRepo repository.GuildConfigRepository
	Platform        platform.Adapter
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	return &StaffService{
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

// HireInput describes a hire request.
type HireInput struct {
	GuildID        string
	UserID         string
	RobloxUsername string
	Role           domain.StaffRole
	Reason         string
}

// RoleChangeInput describes a promotion or demotion.
type RoleChangeInput struct {
	GuildID string
	UserID  string
	NewRole domain.StaffRole
	Reason  string
}

// FireInput describes a termination.
type FireInput struct {
	GuildID string
	UserID  string
	Reason  string
}

func staffQueueKey(guildID, userID string) string {
	return fmt.Sprintf("staff:%s:%s", guildID, userID)
}

// Hire brings a new member onto staff.
func (s *StaffService) Hire(ctx context.Context, actor domain.ActorContext, input HireInput) (*domain.StaffMember, error) {
	if err := permission.ValidateContext(actor); err != nil {
		return nil, err
	}
	if input.GuildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, apperrors.NewValidationError("user id is required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown staff role", map[string]any{"role": input.Role})
	}
	if !domain.ValidRobloxUsername(input.RobloxUsername) {
		return nil, apperrors.NewValidationError("invalid roblox username", map[string]any{"username": input.RobloxUsername})
	}

	cfg, err := s.loadConfig(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if !permission.Evaluate(actor, cfg, permission.ActionHireStaff) {
		return nil, apperrors.NewForbidden("not authorized to hire staff")
	}

	var hired *domain.StaffMember
	taskErr := <-s.queue.Enqueue(ctx, staffQueueKey(input.GuildID, input.UserID), actor.IsGuildOwner, func(ctx context.Context) error {
		return s.runner.withUnitOfWork(ctx, "staff.hire", input.GuildID, func(ctx context.Context, u uow.UnitOfWork) error {
			member, err := s.hireTx(ctx, u, actor, cfg, input)
			if err != nil {
				return err
			}
			hired = member
			return nil
		})
	})
	if taskErr != nil {
		return nil, taskErr
	}

	s.publish(ctx, events.Event{
		Type:    events.EventStaffHired,
		GuildID: input.GuildID,
		ActorID: actor.UserID,
		Payload: events.StaffHiredPayload{
			UserID:         input.UserID,
			RobloxUsername: input.RobloxUsername,
			Role:           input.Role,
		},
	})
	return hired, nil
}

func (s *StaffService) hireTx(ctx context.Context, u uow.UnitOfWork, actor domain.ActorContext, cfg *domain.GuildConfig, input HireInput) (*domain.StaffMember, error) {
	staffRepo := u.Staff()

	if _, err := staffRepo.FindActiveByUser(ctx, input.GuildID, input.UserID); err == nil {
		return nil, apperrors.NewBusinessRuleError(apperrors.CodeAlreadyEmployed,
			"user already holds an active staff position", map[string]any{"user_id": input.UserID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if _, err := staffRepo.FindActiveByRobloxUsername(ctx, input.GuildID, input.RobloxUsername); err == nil {
		return nil, apperrors.NewBusinessRuleError(apperrors.CodeUsernameTaken,
			"roblox username already bound to an active staff member", map[string]any{"username": input.RobloxUsername})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := s.checkCapacity(ctx, u, actor, cfg, input.GuildID, input.UserID, input.Role); err != nil {
		return nil, err
	}

	// external role grant happens outside the store transaction; if anything
	// after this point fails, the rollback path must revoke it
	if err := s.platform.GrantRole(ctx, input.GuildID, input.UserID, platformRoleName(input.Role)); err != nil {
		return nil, fmt.Errorf("grant platform role: %w", err)
	}
	s.registerRoleRevoke(u.ID(), input.GuildID, input.UserID, input.Role)
	s.registerFailureNotice(u.ID(), input.GuildID, input.UserID, "your hiring could not be completed")

	now := s.now()
	member := &domain.StaffMember{
		GuildID:        input.GuildID,
		UserID:         input.UserID,
		RobloxUsername: input.RobloxUsername,
		Role:           input.Role,
		Status:         domain.StaffStatusActive,
		HiredAt:        now,
		HiredBy:        actor.UserID,
		PromotionHistory: []domain.PromotionRecord{{
			FromRole:   "",
			ToRole:     input.Role,
			ActorID:    actor.UserID,
			Timestamp:  now,
			Reason:     input.Reason,
			ActionType: domain.StaffActionHire,
		}},
	}
	if err := staffRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	if err := u.Audit().Create(ctx, &domain.AuditEntry{
		GuildID:  input.GuildID,
		Action:   domain.AuditStaffHired,
		ActorID:  actor.UserID,
		TargetID: input.UserID,
		After:    staffSnapshot(member),
		Metadata: map[string]any{"reason": input.Reason},
	}); err != nil {
		return nil, err
	}
	return member, nil
}

// Promote raises a staff member to a strictly higher role.
func (s *StaffService) Promote(ctx context.Context, actor domain.ActorContext, input RoleChangeInput) (*domain.StaffMember, error) {
	return s.changeRole(ctx, actor, input, true)
}

// Demote lowers a staff member to a strictly lower role. Demotions vacate a
// higher slot rather than fill one, so they are never capacity-checked.
func (s *StaffService) Demote(ctx context.Context, actor domain.ActorContext, input RoleChangeInput) (*domain.StaffMember, error) {
	return s.changeRole(ctx, actor, input, false)
}

func (s *StaffService) changeRole(ctx context.Context, actor domain.ActorContext, input RoleChangeInput, promote bool) (*domain.StaffMember, error) {
	if err := permission.ValidateContext(actor); err != nil {
		return nil, err
	}
	if input.GuildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}
	if !input.NewRole.Valid() {
		return nil, apperrors.NewValidationError("unknown staff role", map[string]any{"role": input.NewRole})
	}

	action := permission.ActionPromoteStaff
	operation := "staff.promote"
	if !promote {
		action = permission.ActionDemoteStaff
		operation = "staff.demote"
	}

	cfg, err := s.loadConfig(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if !permission.Evaluate(actor, cfg, action) {
		return nil, apperrors.NewForbidden("not authorized to change staff roles")
	}

	var updated *domain.StaffMember
	taskErr := <-s.queue.Enqueue(ctx, staffQueueKey(input.GuildID, input.UserID), actor.IsGuildOwner, func(ctx context.Context) error {
		return s.runner.withUnitOfWork(ctx, operation, input.GuildID, func(ctx context.Context, u uow.UnitOfWork) error {
			member, err := s.changeRoleTx(ctx, u, actor, cfg, input, promote)
			if err != nil {
				return err
			}
			updated = member
			return nil
		})
	})
	if taskErr != nil {
		return nil, taskErr
	}

	last := updated.PromotionHistory[len(updated.PromotionHistory)-1]
	s.publish(ctx, events.Event{
		Type:    events.EventStaffRoleChanged,
		GuildID: input.GuildID,
		ActorID: actor.UserID,
		Payload: events.StaffRoleChangedPayload{
			UserID:  input.UserID,
			OldRole: last.FromRole,
			NewRole: updated.Role,
			Reason:  input.Reason,
		},
	})
	return updated, nil
}

func (s *StaffService) changeRoleTx(ctx context.Context, u uow.UnitOfWork, actor domain.ActorContext, cfg *domain.GuildConfig, input RoleChangeInput, promote bool) (*domain.StaffMember, error) {
	if actor.UserID == input.UserID {
		return nil, apperrors.NewBusinessRuleError(apperrors.CodeSelfPromotion,
			"staff members cannot change their own role", nil)
	}

	staffRepo := u.Staff()
	member, err := staffRepo.FindActiveByUser(ctx, input.GuildID, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"user_id": input.UserID})
		}
		return nil, err
	}

	oldRole := member.Role
	if promote {
		if input.NewRole.Level() <= oldRole.Level() {
			return nil, apperrors.NewBusinessRuleError(apperrors.CodeNotAPromotion,
				"new role must outrank the current role", map[string]any{
					"current_role": oldRole, "new_role": input.NewRole,
				})
		}
		if err := s.checkCapacity(ctx, u, actor, cfg, input.GuildID, input.UserID, input.NewRole); err != nil {
			return nil, err
		}
	} else {
		if input.NewRole.Level() >= oldRole.Level() {
			return nil, apperrors.NewBusinessRuleError(apperrors.CodeNotADemotion,
				"new role must rank below the current role", map[string]any{
					"current_role": oldRole, "new_role": input.NewRole,
				})
		}
	}

	if err := s.platform.GrantRole(ctx, input.GuildID, input.UserID, platformRoleName(input.NewRole)); err != nil {
		return nil, fmt.Errorf("grant platform role: %w", err)
	}
	s.registerRoleRevoke(u.ID(), input.GuildID, input.UserID, input.NewRole)
	if err := s.platform.RevokeRole(ctx, input.GuildID, input.UserID, platformRoleName(oldRole)); err != nil {
		return nil, fmt.Errorf("revoke platform role: %w", err)
	}
	s.registerRoleRegrant(u.ID(), input.GuildID, input.UserID, oldRole)

	before := staffSnapshot(member)
	actionType := domain.StaffActionPromotion
	auditAction := domain.AuditStaffPromoted
	if !promote {
		actionType = domain.StaffActionDemotion
		auditAction = domain.AuditStaffDemoted
	}
	member.Role = input.NewRole
	member.PromotionHistory = append(member.PromotionHistory, domain.PromotionRecord{
		FromRole:   oldRole,
		ToRole:     input.NewRole,
		ActorID:    actor.UserID,
		Timestamp:  s.now(),
		Reason:     input.Reason,
		ActionType: actionType,
	})
	if err := staffRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	if err := u.Audit().Create(ctx, &domain.AuditEntry{
		GuildID:  input.GuildID,
		Action:   auditAction,
		ActorID:  actor.UserID,
		TargetID: input.UserID,
		Before:   before,
		After:    staffSnapshot(member),
		Metadata: map[string]any{"reason": input.Reason},
	}); err != nil {
		return nil, err
	}
	return member, nil
}

// Fire terminates a staff member, preserving their history.
func (s *StaffService) Fire(ctx context.Context, actor domain.ActorContext, input FireInput) (*domain.StaffMember, error) {
	if err := permission.ValidateContext(actor); err != nil {
		return nil, err
	}
	if input.GuildID != actor.GuildID {
		return nil, apperrors.NewValidationError("guild mismatch between actor and request", nil)
	}

	cfg, err := s.loadConfig(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if !permission.Evaluate(actor, cfg, permission.ActionFireStaff) {
		return nil, apperrors.NewForbidden("not authorized to fire staff")
	}

	var fired *domain.StaffMember
	taskErr := <-s.queue.Enqueue(ctx, staffQueueKey(input.GuildID, input.UserID), actor.IsGuildOwner, func(ctx context.Context) error {
		return s.runner.withUnitOfWork(ctx, "staff.fire", input.GuildID, func(ctx context.Context, u uow.UnitOfWork) error {
			member, err := s.fireTx(ctx, u, actor, input)
			if err != nil {
				return err
			}
			fired = member
			return nil
		})
	})
	if taskErr != nil {
		return nil, taskErr
	}

	s.publish(ctx, events.Event{
		Type:    events.EventStaffFired,
		GuildID: input.GuildID,
		ActorID: actor.UserID,
		Payload: events.StaffFiredPayload{
			UserID: input.UserID,
			Role:   fired.Role,
			Reason: input.Reason,
		},
	})
	return fired, nil
}

func (s *StaffService) fireTx(ctx context.Context, u uow.UnitOfWork, actor domain.ActorContext, input FireInput) (*domain.StaffMember, error) {
	staffRepo := u.Staff()
	member, err := staffRepo.FindActiveByUser(ctx, input.GuildID, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"user_id": input.UserID})
		}
		return nil, err
	}

	// peers and superiors are untouchable; owners outrank everyone
	if !actor.IsGuildOwner {
		actorMember, err := staffRepo.FindActiveByUser(ctx, input.GuildID, actor.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewBusinessRuleError(apperrors.CodeHierarchy,
					"only staff members can fire staff", nil)
			}
			return nil, err
		}
		if actorMember.Role.Level() <= member.Role.Level() {
			return nil, apperrors.NewBusinessRuleError(apperrors.CodeHierarchy,
				"cannot fire a staff member of equal or higher rank", map[string]any{
					"actor_role": actorMember.Role, "target_role": member.Role,
				})
		}
	}

	if err := s.platform.RevokeRole(ctx, input.GuildID, input.UserID, platformRoleName(member.Role)); err != nil {
		return nil, fmt.Errorf("revoke platform role: %w", err)
	}
	s.registerRoleRegrant(u.ID(), input.GuildID, input.UserID, member.Role)

	before := staffSnapshot(member)
	member.Status = domain.StaffStatusTerminated
	member.PromotionHistory = append(member.PromotionHistory, domain.PromotionRecord{
		FromRole:   member.Role,
		ToRole:     member.Role,
		ActorID:    actor.UserID,
		Timestamp:  s.now(),
		Reason:     input.Reason,
		ActionType: domain.StaffActionFire,
	})
	if err := staffRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	if err := u.Audit().Create(ctx, &domain.AuditEntry{
		GuildID:  input.GuildID,
		Action:   domain.AuditStaffFired,
		ActorID:  actor.UserID,
		TargetID: input.UserID,
		Before:   before,
		After:    staffSnapshot(member),
		Metadata: map[string]any{"reason": input.Reason},
	}); err != nil {
		return nil, err
	}
	return member, nil
}

// checkCapacity enforces the per-role active-staff limit. Guild owners may
// exceed it, and every bypass lands in the audit trail with the counts that
// were overridden.
func (s *StaffService) checkCapacity(ctx context.Context, u uow.UnitOfWork, actor domain.ActorContext, cfg *domain.GuildConfig, guildID, targetID string, role domain.StaffRole) error {
	limit := cfg.LimitFor(role)
	if limit <= 0 {
		return nil
	}
	count, err := u.Staff().CountActiveByRole(ctx, guildID, role)
	if err != nil {
		return err
	}
	if count < limit {
		return nil
	}
	if !actor.IsGuildOwner {
		return apperrors.NewBusinessRuleError(apperrors.CodeCapacityExceeded,
			fmt.Sprintf("role %s is at capacity (%d/%d)", role, count, limit), map[string]any{
				"role": role, "current_count": count, "max_count": limit,
			})
	}
	return u.Audit().Create(ctx, &domain.AuditEntry{
		GuildID:  guildID,
		Action:   domain.AuditCapacityBypass,
		ActorID:  actor.UserID,
		TargetID: targetID,
		Metadata: map[string]any{
			"role":          role,
			"current_count": count,
			"max_count":     limit,
		},
	})
}

func (s *StaffService) loadConfig(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	cfg, err := s.guildConfigs.GetByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// unconfigured guild: the evaluator fails closed for everyone but the owner
			return nil, nil
		}
		return nil, apperrors.NewInternalError(err)
	}
	return cfg, nil
}

func (s *StaffService) registerRoleRevoke(txID, guildID, userID string, role domain.StaffRole) {
	s.runner.rollback.Register(txID, uow.Compensation{
		ID:   uuid.NewString(),
		Kind: "revoke_platform_role",
		Execute: func(ctx context.Context) error {
			return s.platform.RevokeRole(ctx, guildID, userID, platformRoleName(role))
		},
	})
}

func (s *StaffService) registerRoleRegrant(txID, guildID, userID string, role domain.StaffRole) {
	s.runner.rollback.Register(txID, uow.Compensation{
		ID:   uuid.NewString(),
		Kind: "regrant_platform_role",
		Execute: func(ctx context.Context) error {
			return s.platform.GrantRole(ctx, guildID, userID, platformRoleName(role))
		},
	})
}

func (s *StaffService) registerFailureNotice(txID, guildID, userID, message string) {
	s.runner.rollback.Register(txID, uow.Compensation{
		ID:   uuid.NewString(),
		Kind: "notify_failure",
		Execute: func(ctx context.Context) error {
			return s.platform.Notify(ctx, guildID, userID, message)
		},
	})
}

func (s *StaffService) publish(ctx context.Context, event events.Event) {
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

func staffSnapshot(member *domain.StaffMember) map[string]any {
	if member == nil {
		return nil
	}
	return map[string]any{
		"user_id":         member.UserID,
		"roblox_username": member.RobloxUsername,
		"role":            member.Role,
		"status":          member.Status,
	}
}

func platformRoleName(role domain.StaffRole) string {
	parts := strings.Split(strings.ToLower(string(role)), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
