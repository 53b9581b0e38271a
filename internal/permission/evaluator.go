package permission

import (
	"strings"

	"github.com/spec-kit/firm-service/internal/domain"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

// ActionAdmin is the administrative gate; admin roles and admin users pass
// it without an explicit grant.
const ActionAdmin = "admin"

// Lifecycle action names resolved against guild configuration.
const (
	ActionHireStaff    = "staff.hire"
	ActionPromoteStaff = "staff.promote"
	ActionDemoteStaff  = "staff.demote"
	ActionFireStaff    = "staff.fire"
	ActionCreateCase   = "case.create"
	ActionAcceptCase   = "case.accept"
	ActionAssignCase   = "case.assign"
	ActionCloseCase    = "case.close"
	ActionDeclineCase  = "case.decline"
	ActionManageCase   = "case.manage"
)

// ValidateContext rejects partially-populated actor contexts. Malformed
// contexts are a validation error, never a silently-defaulted grant.
func ValidateContext(actor domain.ActorContext) error {
	if strings.TrimSpace(actor.GuildID) == "" {
		return apperrors.NewValidationError("actor context missing guild id", nil)
	}
	if strings.TrimSpace(actor.UserID) == "" {
		return apperrors.NewValidationError("actor context missing user id", nil)
	}
	if actor.RoleIDs == nil {
		return apperrors.NewValidationError("actor context missing role set", nil)
	}
	return nil
}

// Evaluate resolves whether the actor may perform the named action under the
// guild's configuration. Guild owners pass every gate; admin roles and admin
// users pass the admin gate; everyone else needs a role intersecting the
// action's grant set. A nil or foreign config fails closed.
//
// The grant-set walk always runs to completion so that response timing does
// not trivially reveal whether a guild or action is configured.
func Evaluate(actor domain.ActorContext, cfg *domain.GuildConfig, action string) bool {
	if ValidateContext(actor) != nil {
		return false
	}

	allowed := false
	if actor.IsGuildOwner {
		allowed = true
	}

	if cfg == nil || cfg.GuildID != actor.GuildID {
		return allowed
	}

	isAdmin := false
	for _, roleID := range cfg.AdminRoles {
		if actor.HasRole(roleID) {
			isAdmin = true
		}
	}
	for _, userID := range cfg.AdminUsers {
		if userID == actor.UserID {
			isAdmin = true
		}
	}
	if isAdmin && action == ActionAdmin {
		allowed = true
	}

	for _, roleID := range cfg.PermittedRoles(action) {
		if actor.HasRole(roleID) {
			allowed = true
		}
	}
	return allowed
}
