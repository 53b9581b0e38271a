package domain

import "time"

// GuildConfig holds per-guild authorization settings. One record per guild,
// written by the configuration workflow and read on every permission check.
type GuildConfig struct {
	GuildID     string
	Permissions map[string][]string
	AdminRoles  []string
	AdminUsers  []string
	RoleLimits  map[StaffRole]int
	UpdatedAt   time.Time
}

// PermittedRoles returns the role set authorized for an action. The slice is
// empty, never nil, when no grant exists.
func (c *GuildConfig) PermittedRoles(action string) []string {
	if c == nil || c.Permissions == nil {
		return []string{}
	}
	roles, ok := c.Permissions[action]
	if !ok || roles == nil {
		return []string{}
	}
	return roles
}

// LimitFor returns the active-staff capacity for a role, falling back to the
// built-in defaults when the guild has no override.
func (c *GuildConfig) LimitFor(role StaffRole) int {
	if c != nil && c.RoleLimits != nil {
		if limit, ok := c.RoleLimits[role]; ok {
			return limit
		}
	}
	return defaultRoleLimits[role]
}
