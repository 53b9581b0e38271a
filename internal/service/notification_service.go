package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/firm-service/internal/events"
	"github.com/spec-kit/firm-service/internal/platform"
)

// NotificationService turns post-commit domain events into platform
// notifications. Everything here is best effort: a failed notification is
// logged and dropped, never surfaced to the operation that emitted it.
type NotificationService struct {
	dispatcher events.Dispatcher
	platform   platform.Adapter
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, adapter platform.Adapter, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		platform:   adapter,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventStaffHired, n.handleStaffHired)
	n.dispatcher.Subscribe(events.EventStaffRoleChanged, n.handleStaffRoleChanged)
	n.dispatcher.Subscribe(events.EventStaffFired, n.handleStaffFired)
	n.dispatcher.Subscribe(events.EventCaseAssigned, n.handleCaseAssigned)
	n.dispatcher.Subscribe(events.EventCaseClosed, n.handleCaseClosed)
}

func (n *NotificationService) handleStaffHired(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StaffHiredPayload)
	if !ok {
		return nil
	}
	n.notify(ctx, event.GuildID, payload.UserID,
		fmt.Sprintf("Welcome to the firm. You have been hired as %s.", payload.Role))
	return nil
}

func (n *NotificationService) handleStaffRoleChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StaffRoleChangedPayload)
	if !ok {
		return nil
	}
	n.notify(ctx, event.GuildID, payload.UserID,
		fmt.Sprintf("Your role changed from %s to %s.", payload.OldRole, payload.NewRole))
	return nil
}

func (n *NotificationService) handleStaffFired(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StaffFiredPayload)
	if !ok {
		return nil
	}
	n.notify(ctx, event.GuildID, payload.UserID,
		"Your employment with the firm has been terminated.")
	return nil
}

func (n *NotificationService) handleCaseAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseAssignedPayload)
	if !ok {
		return nil
	}
	n.notify(ctx, event.GuildID, payload.LawyerID,
		fmt.Sprintf("You have been assigned to case %s.", payload.CaseID))
	return nil
}

func (n *NotificationService) handleCaseClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseClosedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("case closed",
		zap.String("case_id", payload.CaseID),
		zap.String("result", string(payload.Result)),
		zap.String("guild_id", event.GuildID))
	return nil
}

func (n *NotificationService) notify(ctx context.Context, guildID, userID, message string) {
	if n.platform == nil {
		return
	}
	if err := n.platform.Notify(ctx, guildID, userID, message); err != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("guild_id", guildID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
