package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/firm-service/internal/api/http/handlers"
	"github.com/spec-kit/firm-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Cases          *handlers.CasesHandler
	Guild          *handlers.GuildHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/token", cfg.Auth.Token)

	guilds := app.Group("/v1/guilds/:guildID", cfg.AuthMiddleware.Handle)

	guilds.Get("/staff", cfg.Staff.List)
	guilds.Post("/staff", cfg.Staff.Hire)
	guilds.Post("/staff/:userID/promote", cfg.Staff.Promote)
	guilds.Post("/staff/:userID/demote", cfg.Staff.Demote)
	guilds.Post("/staff/:userID/fire", cfg.Staff.Fire)

	guilds.Get("/cases", cfg.Cases.List)
	guilds.Post("/cases", cfg.Cases.Create)
	guilds.Post("/cases/reassign", cfg.Cases.Reassign)
	guilds.Get("/cases/:caseID", cfg.Cases.Get)
	guilds.Post("/cases/:caseID/accept", cfg.Cases.Accept)
	guilds.Post("/cases/:caseID/decline", cfg.Cases.Decline)
	guilds.Post("/cases/:caseID/assign", cfg.Cases.Assign)
	guilds.Post("/cases/:caseID/unassign", cfg.Cases.Unassign)
	guilds.Post("/cases/:caseID/close", cfg.Cases.Close)
	guilds.Post("/cases/:caseID/notes", cfg.Cases.AddNote)
	guilds.Post("/cases/:caseID/documents", cfg.Cases.AddDocument)

	guilds.Get("/config", cfg.Guild.GetConfig)
	guilds.Put("/config", auth.RequireGuildOwner(), cfg.Guild.PutConfig)
	guilds.Get("/audit", cfg.Guild.ListAudit)
}
