package domain

import "time"

// StaffRole enumerates firm positions, ordered by privilege level.
type StaffRole string

const (
	StaffRoleParalegal       StaffRole = "PARALEGAL"
	StaffRoleJuniorAssociate StaffRole = "JUNIOR_ASSOCIATE"
	StaffRoleAssociate       StaffRole = "ASSOCIATE"
	StaffRoleSeniorAssociate StaffRole = "SENIOR_ASSOCIATE"
	StaffRolePartner         StaffRole = "PARTNER"
	StaffRoleSeniorPartner   StaffRole = "SENIOR_PARTNER"
	StaffRoleManagingPartner StaffRole = "MANAGING_PARTNER"
)

var roleLevels = map[StaffRole]int{
	StaffRoleParalegal:       1,
	StaffRoleJuniorAssociate: 2,
	StaffRoleAssociate:       3,
	StaffRoleSeniorAssociate: 4,
	StaffRolePartner:         5,
	StaffRoleSeniorPartner:   6,
	StaffRoleManagingPartner: 7,
}

var defaultRoleLimits = map[StaffRole]int{
	StaffRoleParalegal:       30,
	StaffRoleJuniorAssociate: 20,
	StaffRoleAssociate:       15,
	StaffRoleSeniorAssociate: 10,
	StaffRolePartner:         5,
	StaffRoleSeniorPartner:   3,
	StaffRoleManagingPartner: 1,
}

// Level returns the numeric privilege level, 0 for unknown roles.
func (r StaffRole) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role is a known firm position.
func (r StaffRole) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// IsLawyer reports whether the role may be assigned to cases. Paralegals
// support cases but cannot hold an assignment slot.
func (r StaffRole) IsLawyer() bool {
	return r.Level() >= roleLevels[StaffRoleJuniorAssociate]
}

// StaffStatus enumerates employment states.
type StaffStatus string

const (
	StaffStatusActive     StaffStatus = "ACTIVE"
	StaffStatusTerminated StaffStatus = "TERMINATED"
)

// StaffActionType classifies promotion-history entries.
type StaffActionType string

const (
	StaffActionHire      StaffActionType = "HIRE"
	StaffActionPromotion StaffActionType = "PROMOTION"
	StaffActionDemotion  StaffActionType = "DEMOTION"
	StaffActionFire      StaffActionType = "FIRE"
)

// PromotionRecord is one entry in a staff member's role history.
type PromotionRecord struct {
	FromRole   StaffRole       `json:"from_role"`
	ToRole     StaffRole       `json:"to_role"`
	ActorID    string          `json:"actor_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Reason     string          `json:"reason,omitempty"`
	ActionType StaffActionType `json:"action_type"`
}

// StaffMember models an employee of the firm within one guild. Records are
// soft-terminated, never deleted, so role history survives firing.
type StaffMember struct {
	ID              string
	GuildID         string
	UserID          string
	RobloxUsername  string
	Role            StaffRole
	Status          StaffStatus
	HiredAt         time.Time
	HiredBy         string
	PromotionHistory []PromotionRecord
	UpdatedAt       time.Time
}

// IsActive reports whether the member currently holds a position.
func (s *StaffMember) IsActive() bool {
	return s != nil && s.Status == StaffStatusActive
}
