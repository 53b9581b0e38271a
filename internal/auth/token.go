package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/firm-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens for the bot
// gateway. A token carries the full actor context of the guild member the
// gateway is acting for, so the backend never has to call back out to
// resolve roles.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes JWT payload.
type Claims struct {
	GuildID      string   `json:"guild_id"`
	UserID       string   `json:"user_id"`
	RoleIDs      []string `json:"role_ids"`
	IsGuildOwner bool     `json:"is_guild_owner"`
	jwt.RegisteredClaims
}

// Actor converts the claims back into the actor context the services
// evaluate permissions against.
func (c *Claims) Actor() domain.ActorContext {
	roleIDs := c.RoleIDs
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return domain.ActorContext{
		GuildID:      c.GuildID,
		UserID:       c.UserID,
		RoleIDs:      roleIDs,
		IsGuildOwner: c.IsGuildOwner,
	}
}

// GenerateToken builds and signs a JWT for the actor.
func (tm *TokenManager) GenerateToken(actor domain.ActorContext) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		GuildID:      actor.GuildID,
		UserID:       actor.UserID,
		RoleIDs:      actor.RoleIDs,
		IsGuildOwner: actor.IsGuildOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
