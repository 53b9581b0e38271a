package dto

import (
	"time"

	"github.com/spec-kit/firm-service/internal/domain"
)

// HireStaffRequest payload.
type HireStaffRequest struct {
	UserID         string           `json:"user_id"`
	RobloxUsername string           `json:"roblox_username"`
	Role           domain.StaffRole `json:"role"`
	Reason         string           `json:"reason,omitempty"`
}

// RoleChangeRequest payload for promotions and demotions.
type RoleChangeRequest struct {
	NewRole domain.StaffRole `json:"new_role"`
	Reason  string           `json:"reason,omitempty"`
}

// FireStaffRequest payload.
type FireStaffRequest struct {
	Reason string `json:"reason,omitempty"`
}

// StaffResponse represents one staff member.
type StaffResponse struct {
	ID             string                    `json:"id"`
	UserID         string                    `json:"user_id"`
	RobloxUsername string                    `json:"roblox_username"`
	Role           domain.StaffRole          `json:"role"`
	Status         domain.StaffStatus        `json:"status"`
	HiredAt        time.Time                 `json:"hired_at"`
	HiredBy        string                    `json:"hired_by"`
	History        []PromotionRecordResponse `json:"history"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// PromotionRecordResponse is one role-history entry.
type PromotionRecordResponse struct {
	FromRole   domain.StaffRole       `json:"from_role,omitempty"`
	ToRole     domain.StaffRole       `json:"to_role"`
	ActorID    string                 `json:"actor_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Reason     string                 `json:"reason,omitempty"`
	ActionType domain.StaffActionType `json:"action_type"`
}
