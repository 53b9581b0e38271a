package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/firm-service/internal/domain"
)

// cachedGuildConfigRepository is a redis read-through cache in front of the
// Postgres guild-config repository. Guild configuration sits on the hot path
// of every permission check; a cache miss or redis outage falls back to the
// store silently.
type cachedGuildConfigRepository struct {
	inner  GuildConfigRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedGuildConfigRepository wraps a repository with a redis cache.
func NewCachedGuildConfigRepository(inner GuildConfigRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) GuildConfigRepository {
	return &cachedGuildConfigRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func guildConfigKey(guildID string) string {
	return "guild_config:" + guildID
}

func (r *cachedGuildConfigRepository) GetByGuild(ctx context.Context, guildID string) (*domain.GuildConfig, error) {
	if r.client != nil {
		raw, err := r.client.Get(ctx, guildConfigKey(guildID)).Bytes()
		if err == nil {
			var cfg domain.GuildConfig
			if err := json.Unmarshal(raw, &cfg); err == nil {
				return &cfg, nil
			}
			r.logger.Warn("corrupt guild config cache entry", zap.String("guild_id", guildID))
		} else if err != redis.Nil {
			r.logger.Warn("guild config cache read failed", zap.Error(err))
		}
	}

	cfg, err := r.inner.GetByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, cfg)
	return cfg, nil
}

func (r *cachedGuildConfigRepository) Upsert(ctx context.Context, cfg *domain.GuildConfig) error {
	if err := r.inner.Upsert(ctx, cfg); err != nil {
		return err
	}
	if r.client != nil {
		if err := r.client.Del(ctx, guildConfigKey(cfg.GuildID)).Err(); err != nil {
			r.logger.Warn("guild config cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

func (r *cachedGuildConfigRepository) store(ctx context.Context, cfg *domain.GuildConfig) {
	if r.client == nil || cfg == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, guildConfigKey(cfg.GuildID), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("guild config cache write failed", zap.Error(err))
	}
}
