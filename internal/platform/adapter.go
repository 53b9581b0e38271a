package platform

import (
	"context"

	"go.uber.org/zap"
)

// Adapter is the contract the lifecycle services require from the chat
// platform. Implementations live in the bot gateway; everything here is a
// side effect outside the transactional store, which is why these calls are
// wrapped in compensation actions when they precede a commit.
type Adapter interface {
	CreateCaseChannel(ctx context.Context, guildID, caseNumber string) (channelID string, err error)
	ArchiveChannel(ctx context.Context, guildID, channelID string) error
	GrantRole(ctx context.Context, guildID, userID, roleName string) error
	RevokeRole(ctx context.Context, guildID, userID, roleName string) error
	Notify(ctx context.Context, guildID, userID, message string) error
}

// LogAdapter is a no-op Adapter that records calls. It stands in for the
// gateway in development and in the composition root's default wiring.
type LogAdapter struct {
	logger *zap.Logger
}

// NewLogAdapter builds the stub adapter.
func NewLogAdapter(logger *zap.Logger) *LogAdapter {
	return &LogAdapter{logger: logger}
}

func (a *LogAdapter) CreateCaseChannel(_ context.Context, guildID, caseNumber string) (string, error) {
	a.logger.Info("platform: create case channel",
		zap.String("guild_id", guildID),
		zap.String("case_number", caseNumber),
	)
	return "channel-" + caseNumber, nil
}

func (a *LogAdapter) ArchiveChannel(_ context.Context, guildID, channelID string) error {
	a.logger.Info("platform: archive channel",
		zap.String("guild_id", guildID),
		zap.String("channel_id", channelID),
	)
	return nil
}

func (a *LogAdapter) GrantRole(_ context.Context, guildID, userID, roleName string) error {
	a.logger.Info("platform: grant role",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("role", roleName),
	)
	return nil
}

func (a *LogAdapter) RevokeRole(_ context.Context, guildID, userID, roleName string) error {
	a.logger.Info("platform: revoke role",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("role", roleName),
	)
	return nil
}

func (a *LogAdapter) Notify(_ context.Context, guildID, userID, message string) error {
	a.logger.Info("platform: notify",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("message", message),
	)
	return nil
}
