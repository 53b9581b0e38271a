package permission

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/firm-service/internal/domain"
)

func testConfig() *domain.GuildConfig {
	return &domain.GuildConfig{
		GuildID: "guild-1",
		Permissions: map[string][]string{
			ActionHireStaff:  {"role-hr"},
			ActionAcceptCase: {"role-lead"},
		},
		AdminRoles: []string{"role-admin"},
		AdminUsers: []string{"user-root"},
	}
}

func actor(userID string, roles ...string) domain.ActorContext {
	if roles == nil {
		roles = []string{}
	}
	return domain.ActorContext{GuildID: "guild-1", UserID: userID, RoleIDs: roles}
}

func TestEvaluate_OwnerBypassesEverything(t *testing.T) {
	owner := actor("user-1")
	owner.IsGuildOwner = true

	require.True(t, Evaluate(owner, testConfig(), ActionFireStaff))
	require.True(t, Evaluate(owner, nil, "anything"))
}

func TestEvaluate_RoleIntersection(t *testing.T) {
	require.True(t, Evaluate(actor("user-2", "role-hr"), testConfig(), ActionHireStaff))
	require.False(t, Evaluate(actor("user-2", "role-hr"), testConfig(), ActionAcceptCase))
	require.False(t, Evaluate(actor("user-2"), testConfig(), ActionHireStaff))
}

func TestEvaluate_AdminGate(t *testing.T) {
	byRole := actor("user-3", "role-admin")
	byUser := actor("user-root")

	require.True(t, Evaluate(byRole, testConfig(), ActionAdmin))
	require.True(t, Evaluate(byUser, testConfig(), ActionAdmin))
	// admin status does not grant unrelated actions
	require.False(t, Evaluate(byRole, testConfig(), ActionHireStaff))
}

func TestEvaluate_FailsClosed(t *testing.T) {
	require.False(t, Evaluate(domain.ActorContext{}, testConfig(), ActionHireStaff))
	require.False(t, Evaluate(domain.ActorContext{GuildID: "guild-1"}, testConfig(), ActionHireStaff))
	require.False(t, Evaluate(domain.ActorContext{GuildID: "guild-1", UserID: "u"}, testConfig(), ActionHireStaff))
	require.False(t, Evaluate(actor("user-2", "role-hr"), nil, ActionHireStaff))

	foreign := testConfig()
	foreign.GuildID = "guild-2"
	require.False(t, Evaluate(actor("user-2", "role-hr"), foreign, ActionHireStaff))
}

func TestEvaluate_UnknownActionDenied(t *testing.T) {
	require.False(t, Evaluate(actor("user-2", "role-hr"), testConfig(), "case.transfer"))
}

func TestValidateContext(t *testing.T) {
	require.Error(t, ValidateContext(domain.ActorContext{UserID: "u", RoleIDs: []string{}}))
	require.Error(t, ValidateContext(domain.ActorContext{GuildID: "g", RoleIDs: []string{}}))
	require.Error(t, ValidateContext(domain.ActorContext{GuildID: "g", UserID: "u"}))
	require.NoError(t, ValidateContext(actor("user-2")))
}
