package dto

import (
	"time"

	"github.com/spec-kit/firm-service/internal/domain"
)

// TokenRequest payload for the gateway token exchange.
type TokenRequest struct {
	GatewayKey string       `json:"gateway_key"`
	Actor      ActorPayload `json:"actor"`
}

// ActorPayload identifies the guild member the gateway acts for.
type ActorPayload struct {
	GuildID      string   `json:"guild_id"`
	UserID       string   `json:"user_id"`
	RoleIDs      []string `json:"role_ids"`
	IsGuildOwner bool     `json:"is_guild_owner"`
}

// TokenResponse carries the issued JWT.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GuildConfigRequest payload for configuration upserts.
type GuildConfigRequest struct {
	Permissions map[string][]string      `json:"permissions"`
	AdminRoles  []string                 `json:"admin_roles"`
	AdminUsers  []string                 `json:"admin_users"`
	RoleLimits  map[domain.StaffRole]int `json:"role_limits"`
}

// GuildConfigResponse represents stored configuration.
type GuildConfigResponse struct {
	GuildID     string                   `json:"guild_id"`
	Permissions map[string][]string      `json:"permissions"`
	AdminRoles  []string                 `json:"admin_roles"`
	AdminUsers  []string                 `json:"admin_users"`
	RoleLimits  map[domain.StaffRole]int `json:"role_limits"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// AuditEntryResponse is one audit-trail record.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id"`
	TargetID  string         `json:"target_id"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
