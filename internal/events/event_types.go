package events

import (
	"time"

	"github.com/spec-kit/firm-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventStaffHired       EventType = "staff_hired"
	EventStaffRoleChanged EventType = "staff_role_changed"
	EventStaffFired       EventType = "staff_fired"
	EventCaseOpened       EventType = "case_opened"
	EventCaseAccepted     EventType = "case_accepted"
	EventCaseAssigned     EventType = "case_assigned"
	EventCaseClosed       EventType = "case_closed"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StaffHiredPayload payload.
type StaffHiredPayload struct {
	UserID         string           `json:"user_id"`
	RobloxUsername string           `json:"roblox_username"`
	Role           domain.StaffRole `json:"role"`
}

// StaffRoleChangedPayload payload.
type StaffRoleChangedPayload struct {
	UserID  string           `json:"user_id"`
	OldRole domain.StaffRole `json:"old_role"`
	NewRole domain.StaffRole `json:"new_role"`
	Reason  string           `json:"reason,omitempty"`
}

// StaffFiredPayload payload.
type StaffFiredPayload struct {
	UserID string           `json:"user_id"`
	Role   domain.StaffRole `json:"role"`
	Reason string           `json:"reason,omitempty"`
}

// CaseOpenedPayload payload.
type CaseOpenedPayload struct {
	CaseID     string              `json:"case_id"`
	CaseNumber string              `json:"case_number"`
	ClientID   string              `json:"client_id"`
	Priority   domain.CasePriority `json:"priority"`
	Title      string              `json:"title"`
}

// CaseAcceptedPayload payload.
type CaseAcceptedPayload struct {
	CaseID         string `json:"case_id"`
	LeadAttorneyID string `json:"lead_attorney_id"`
}

// CaseAssignedPayload payload.
type CaseAssignedPayload struct {
	CaseID   string `json:"case_id"`
	LawyerID string `json:"lawyer_id"`
}

// CaseClosedPayload payload.
type CaseClosedPayload struct {
	CaseID string            `json:"case_id"`
	Result domain.CaseResult `json:"result"`
}
