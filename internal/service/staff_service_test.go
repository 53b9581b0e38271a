package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/firm-service/internal/domain"
	"github.com/spec-kit/firm-service/internal/events"
	apperrors "github.com/spec-kit/firm-service/pkg/util/errorutil"
)

const testGuild = "guild-1"

func hireActive(t *testing.T, env *testEnv, userID, username string, role domain.StaffRole) *domain.StaffMember {
	t.Helper()
	member, err := env.staff.Hire(context.Background(), ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         userID,
		RobloxUsername: username,
		Role:           role,
	})
	require.NoError(t, err)
	return member
}

func TestHire_CreatesActiveMemberWithHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	member, err := env.staff.Hire(ctx, ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         "user-1",
		RobloxUsername: "builder_bob",
		Role:           domain.StaffRoleAssociate,
		Reason:         "new hire",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StaffStatusActive, member.Status)
	require.Equal(t, domain.StaffRoleAssociate, member.Role)
	require.Len(t, member.PromotionHistory, 1)
	require.Equal(t, domain.StaffActionHire, member.PromotionHistory[0].ActionType)
	require.Equal(t, domain.StaffRoleAssociate, member.PromotionHistory[0].ToRole)

	stored := env.store.staffByUser(testGuild, "user-1")
	require.NotNil(t, stored)
	require.True(t, stored.IsActive())

	audit := env.store.auditByAction(domain.AuditStaffHired)
	require.Len(t, audit, 1)
	require.Equal(t, "user-1", audit[0].TargetID)

	published := env.dispatcher.byType(events.EventStaffHired)
	require.Len(t, published, 1)
}

func TestHire_FailsClosedWithoutConfig(t *testing.T) {
	env := newTestEnv()

	_, err := env.staff.Hire(context.Background(), memberActor(testGuild, "user-9", "role-hr"), HireInput{
		GuildID:        testGuild,
		UserID:         "user-1",
		RobloxUsername: "builder_bob",
		Role:           domain.StaffRoleParalegal,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, "FORBIDDEN"))
}

func TestHire_GrantedRolePasses(t *testing.T) {
	env := newTestEnv()
	env.store.putConfig(&domain.GuildConfig{
		GuildID:     testGuild,
		Permissions: map[string][]string{"staff.hire": {"role-hr"}},
	})

	_, err := env.staff.Hire(context.Background(), memberActor(testGuild, "hr-1", "role-hr"), HireInput{
		GuildID:        testGuild,
		UserID:         "user-1",
		RobloxUsername: "builder_bob",
		Role:           domain.StaffRoleParalegal,
	})
	require.NoError(t, err)
}

func TestHire_RejectsInvalidUsernames(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for _, username := range []string{"", "ab", "_leading", "trailing_", "has space", "waytoolongusername12345"} {
		_, err := env.staff.Hire(ctx, ownerActor(testGuild), HireInput{
			GuildID:        testGuild,
			UserID:         "user-1",
			RobloxUsername: username,
			Role:           domain.StaffRoleParalegal,
		})
		require.Error(t, err, "username %q", username)
		require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"), "username %q", username)
	}
}

func TestHire_RejectsDuplicateActiveEmployment(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRoleParalegal)

	_, err := env.staff.Hire(context.Background(), ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         "user-1",
		RobloxUsername: "other_name",
		Role:           domain.StaffRoleAssociate,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyEmployed))
}

func TestHire_RejectsTakenUsernameCaseInsensitive(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRoleParalegal)

	_, err := env.staff.Hire(context.Background(), ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         "user-2",
		RobloxUsername: "Builder_BOB",
		Role:           domain.StaffRoleParalegal,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeUsernameTaken))
}

func TestHire_CapacityRejectsNonOwner(t *testing.T) {
	env := newTestEnv()
	env.store.putConfig(&domain.GuildConfig{
		GuildID:     testGuild,
		Permissions: map[string][]string{"staff.hire": {"role-hr"}},
		RoleLimits:  map[domain.StaffRole]int{domain.StaffRoleManagingPartner: 1},
	})
	hireActive(t, env, "mp-1", "managing_one", domain.StaffRoleManagingPartner)

	_, err := env.staff.Hire(context.Background(), memberActor(testGuild, "hr-1", "role-hr"), HireInput{
		GuildID:        testGuild,
		UserID:         "mp-2",
		RobloxUsername: "managing_two",
		Role:           domain.StaffRoleManagingPartner,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeCapacityExceeded))

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, 1, domainErr.Details["current_count"])
	require.Equal(t, 1, domainErr.Details["max_count"])
}

func TestHire_OwnerBypassesCapacityAndAuditsIt(t *testing.T) {
	env := newTestEnv()
	env.store.putConfig(&domain.GuildConfig{
		GuildID:    testGuild,
		RoleLimits: map[domain.StaffRole]int{domain.StaffRoleSeniorPartner: 1},
	})
	hireActive(t, env, "sp-1", "senior_one", domain.StaffRoleSeniorPartner)

	member, err := env.staff.Hire(context.Background(), ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         "sp-2",
		RobloxUsername: "senior_two",
		Role:           domain.StaffRoleSeniorPartner,
	})
	require.NoError(t, err)
	require.True(t, member.IsActive())

	bypasses := env.store.auditByAction(domain.AuditCapacityBypass)
	require.Len(t, bypasses, 1)
	require.Equal(t, "sp-2", bypasses[0].TargetID)
	require.Equal(t, 1, bypasses[0].Metadata["current_count"])
	require.Equal(t, 1, bypasses[0].Metadata["max_count"])
}

func TestHire_StoreFailureRollsBackAndCompensates(t *testing.T) {
	env := newTestEnv()
	env.store.createStaffErr = errors.New("insert failed")

	_, err := env.staff.Hire(context.Background(), ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         "user-1",
		RobloxUsername: "builder_bob",
		Role:           domain.StaffRoleParalegal,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, "INTERNAL_ERROR"))

	// nothing persisted, and the platform role grant was undone
	require.Nil(t, env.store.staffByUser(testGuild, "user-1"))
	require.Contains(t, env.adapter.revokedCalls(), "user-1:Paralegal")

	env.adapter.mu.Lock()
	notified := append([]string{}, env.adapter.notified...)
	env.adapter.mu.Unlock()
	require.Contains(t, notified, "user-1: your hiring could not be completed")
}

func TestPromote_RejectsSelfPromotion(t *testing.T) {
	env := newTestEnv()
	actor := ownerActor(testGuild)
	hireActive(t, env, actor.UserID, "owner_account", domain.StaffRoleAssociate)

	_, err := env.staff.Promote(context.Background(), actor, RoleChangeInput{
		GuildID: testGuild,
		UserID:  actor.UserID,
		NewRole: domain.StaffRolePartner,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeSelfPromotion))
}

func TestPromote_RequiresHigherRole(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRolePartner)

	_, err := env.staff.Promote(context.Background(), ownerActor(testGuild), RoleChangeInput{
		GuildID: testGuild,
		UserID:  "user-1",
		NewRole: domain.StaffRoleAssociate,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotAPromotion))
}

func TestPromote_AppendsHistoryAndPublishes(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRoleAssociate)

	member, err := env.staff.Promote(context.Background(), ownerActor(testGuild), RoleChangeInput{
		GuildID: testGuild,
		UserID:  "user-1",
		NewRole: domain.StaffRolePartner,
		Reason:  "earned it",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StaffRolePartner, member.Role)
	require.Len(t, member.PromotionHistory, 2)

	last := member.PromotionHistory[1]
	require.Equal(t, domain.StaffActionPromotion, last.ActionType)
	require.Equal(t, domain.StaffRoleAssociate, last.FromRole)
	require.Equal(t, domain.StaffRolePartner, last.ToRole)

	published := env.dispatcher.byType(events.EventStaffRoleChanged)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.StaffRoleChangedPayload)
	require.True(t, ok)
	require.Equal(t, domain.StaffRoleAssociate, payload.OldRole)
	require.Equal(t, domain.StaffRolePartner, payload.NewRole)
}

func TestPromote_ChecksCapacityOfTargetRole(t *testing.T) {
	env := newTestEnv()
	env.store.putConfig(&domain.GuildConfig{
		GuildID:     testGuild,
		Permissions: map[string][]string{"staff.promote": {"role-hr"}},
		RoleLimits:  map[domain.StaffRole]int{domain.StaffRolePartner: 1},
	})
	hireActive(t, env, "partner-1", "partner_one", domain.StaffRolePartner)
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRoleAssociate)

	_, err := env.staff.Promote(context.Background(), memberActor(testGuild, "hr-1", "role-hr"), RoleChangeInput{
		GuildID: testGuild,
		UserID:  "user-1",
		NewRole: domain.StaffRolePartner,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeCapacityExceeded))
}

func TestDemote_NeverChecksCapacity(t *testing.T) {
	env := newTestEnv()
	env.store.putConfig(&domain.GuildConfig{
		GuildID:     testGuild,
		Permissions: map[string][]string{"staff.demote": {"role-hr"}},
		RoleLimits:  map[domain.StaffRole]int{domain.StaffRoleAssociate: 1},
	})
	hireActive(t, env, "assoc-1", "assoc_one", domain.StaffRoleAssociate)
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRolePartner)

	// the associate slot is full, but a demotion into it still goes through
	member, err := env.staff.Demote(context.Background(), memberActor(testGuild, "hr-1", "role-hr"), RoleChangeInput{
		GuildID: testGuild,
		UserID:  "user-1",
		NewRole: domain.StaffRoleAssociate,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StaffRoleAssociate, member.Role)
	require.Equal(t, domain.StaffActionDemotion, member.PromotionHistory[len(member.PromotionHistory)-1].ActionType)
}

func TestDemote_RequiresLowerRole(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRoleAssociate)

	_, err := env.staff.Demote(context.Background(), ownerActor(testGuild), RoleChangeInput{
		GuildID: testGuild,
		UserID:  "user-1",
		NewRole: domain.StaffRolePartner,
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotADemotion))
}

func TestFire_RequiresHigherRankThanTarget(t *testing.T) {
	env := newTestEnv()
	env.store.putConfig(&domain.GuildConfig{
		GuildID:     testGuild,
		Permissions: map[string][]string{"staff.fire": {"role-hr"}},
	})
	hireActive(t, env, "hr-1", "hr_one", domain.StaffRoleAssociate)
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRolePartner)

	_, err := env.staff.Fire(context.Background(), memberActor(testGuild, "hr-1", "role-hr"), FireInput{
		GuildID: testGuild,
		UserID:  "user-1",
	})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeHierarchy))
}

func TestFire_TerminatesAndKeepsHistory(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRolePartner)

	member, err := env.staff.Fire(context.Background(), ownerActor(testGuild), FireInput{
		GuildID: testGuild,
		UserID:  "user-1",
		Reason:  "misconduct",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StaffStatusTerminated, member.Status)
	require.Len(t, member.PromotionHistory, 2)
	require.Equal(t, domain.StaffActionFire, member.PromotionHistory[1].ActionType)

	// no active position remains, but the record survives termination
	require.Nil(t, env.store.staffByUser(testGuild, "user-1"))
	require.Len(t, env.store.staffRecords(testGuild, "user-1"), 1)
	require.Len(t, env.store.auditByAction(domain.AuditStaffFired), 1)
	require.Contains(t, env.adapter.revokedCalls(), "user-1:Partner")
}

func TestFire_FiredUserCanBeRehired(t *testing.T) {
	env := newTestEnv()
	hireActive(t, env, "user-1", "builder_bob", domain.StaffRoleParalegal)

	_, err := env.staff.Fire(context.Background(), ownerActor(testGuild), FireInput{
		GuildID: testGuild,
		UserID:  "user-1",
	})
	require.NoError(t, err)

	member, err := env.staff.Hire(context.Background(), ownerActor(testGuild), HireInput{
		GuildID:        testGuild,
		UserID:         "user-1",
		RobloxUsername: "builder_bob",
		Role:           domain.StaffRoleAssociate,
	})
	require.NoError(t, err)
	require.True(t, member.IsActive())
	require.Equal(t, domain.StaffRoleAssociate, member.Role)
}
