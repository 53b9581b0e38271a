package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/firm-service/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", 5)
	actor := domain.ActorContext{
		GuildID:      "guild-1",
		UserID:       "user-1",
		RoleIDs:      []string{"role-a", "role-b"},
		IsGuildOwner: true,
	}

	token, expiresAt, err := tm.GenerateToken(actor)
	require.NoError(t, err)
	require.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, actor, claims.Actor())
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("secret-a", 5).GenerateToken(domain.ActorContext{
		GuildID: "guild-1",
		UserID:  "user-1",
		RoleIDs: []string{},
	})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 5).ParseToken(token)
	require.Error(t, err)
}

func TestClaims_ActorNormalizesNilRoles(t *testing.T) {
	t.Parallel()

	claims := &Claims{GuildID: "guild-1", UserID: "user-1"}
	actor := claims.Actor()
	require.NotNil(t, actor.RoleIDs)
	require.Empty(t, actor.RoleIDs)
}

func TestGatewayKeyHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashGatewayKey("super-secret-key", 4)
	require.NoError(t, err)
	require.NoError(t, VerifyGatewayKey(hash, "super-secret-key"))
	require.Error(t, VerifyGatewayKey(hash, "wrong-key"))
}
