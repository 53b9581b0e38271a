package repository

import (
	"context"

	"github.com/spec-kit/firm-service/internal/domain"
)

// GuildConfigRepository stores per-guild authorization settings.
type GuildConfigRepository interface {
	Upsert(ctx context.Context, cfg *domain.GuildConfig) error
	GetByGuild(ctx context.Context, guildID string) (*domain.GuildConfig, error)
}

type guildConfigRepository struct {
	db Querier
}

// NewGuildConfigRepository instantiates repository.
func NewGuildConfigRepository(db Querier) GuildConfigRepository {
	return &guildConfigRepository{db: db}
}

func (r *guildConfigRepository) Upsert(ctx context.Context, cfg *domain.GuildConfig) error {
	const query = `
        INSERT INTO guild_configs (guild_id, permissions, admin_roles, admin_users, role_limits)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (guild_id)
        DO UPDATE SET permissions=$2, admin_roles=$3, admin_users=$4, role_limits=$5, updated_at=NOW()
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		cfg.GuildID,
		cfg.Permissions,
		cfg.AdminRoles,
		cfg.AdminUsers,
		cfg.RoleLimits,
	).Scan(&cfg.UpdatedAt)
}

func (r *guildConfigRepository) GetByGuild(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	const query = `
        SELECT guild_id, permissions, admin_roles, admin_users, role_limits, updated_at
        FROM guild_configs WHERE guild_id=$1`
	var cfg domain.GuildConfig
	if err := r.db.QueryRow(ctx, query, guildID).Scan(
		&cfg.GuildID,
		&cfg.Permissions,
		&cfg.AdminRoles,
		&cfg.AdminUsers,
		&cfg.RoleLimits,
		&cfg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cfg, nil
}
