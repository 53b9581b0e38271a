package domain

// ActorContext identifies the authenticated caller for one request. It is
// built by the gateway per request and never persisted.
type ActorContext struct {
	GuildID      string
	UserID       string
	RoleIDs      []string
	IsGuildOwner bool
}

// HasRole reports whether the actor holds the given platform role.
func (a ActorContext) HasRole(roleID string) bool {
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
