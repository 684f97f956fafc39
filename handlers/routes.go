package handlers

import (
	"match-ticket-system/middleware"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Orders       *OrderHandler
	Accounts     *AccountHandler
	Matches      *MatchHandler
	Teams        *TeamHandler
	Competitions *CompetitionHandler
	Health       *HealthHandler

	EnableMetrics bool
}

func SetupRoutes(app *fiber.App, h Handlers, limiter *middleware.PurchaseRateLimiter) {
	// 🔓 Public routes
	app.Get("/health", h.Health.Health)
	if h.EnableMetrics {
		app.Get("/metrics", MetricsHandler())
	}

	app.Get("/matches", h.Matches.List)
	app.Get("/matches/availability", h.Matches.Availability) // before /matches/:id
	app.Get("/matches/:id", h.Matches.Get)

	app.Get("/teams", h.Teams.List)
	app.Get("/teams/:name", h.Teams.Get)

	app.Get("/competitions", h.Competitions.GetByID)
	app.Get("/competitions/:name", h.Competitions.GetByName)

	// 🔐 Authenticated routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/account", h.Accounts.Create)
	secured.Get("/account/money", h.Accounts.Money)

	secured.Post("/orders", limiter.Handler(), h.Orders.Purchase)
	secured.Post("/orders/purchase", limiter.Handler(), h.Orders.PurchaseBatch)
	secured.Get("/orders/me", h.Orders.MyOrders)

	// 🔒 Superuser-only routes
	admin := secured.Group("/admin", middleware.RequireSuperuser())

	admin.Put("/account/:user_id/money", h.Accounts.SetMoney)

	admin.Get("/orders", h.Orders.ListAll)
	admin.Get("/orders/user/:user_id", h.Orders.ListForUser)
	admin.Delete("/orders/:id", h.Orders.Delete)

	admin.Post("/matches", h.Matches.Create)
	admin.Put("/matches/:id", h.Matches.Update)
	admin.Delete("/matches/:id", h.Matches.Delete)

	admin.Put("/teams", h.Teams.UpsertByID)
	admin.Put("/teams/:name", h.Teams.UpsertByName)
	admin.Delete("/teams/:name", h.Teams.Delete)
	admin.Post("/teams/:name/crest", h.Teams.UploadCrest)

	admin.Post("/competitions", h.Competitions.Create)
	admin.Put("/competitions/:name", h.Competitions.Update)
	admin.Delete("/competitions/:name", h.Competitions.Delete)
}
