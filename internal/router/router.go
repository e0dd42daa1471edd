// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/pathik-bd/pathik-api/internal/config"
	"github.com/pathik-bd/pathik-api/internal/handler"
	"github.com/pathik-bd/pathik-api/internal/middleware"
	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/observability"
	"github.com/pathik-bd/pathik-api/internal/service"
)

// Deps bundles everything the routes need.  Redis and Metrics may be nil.
type Deps struct {
	JWTSecret string
	DB        *sql.DB
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Metrics   *observability.Metrics

	Auth          *handler.AuthHandler
	Contributions *handler.ContributionHandler
	Tours         *handler.TourHandler
	Guides        *handler.GuideHandler
}

// RegisterRoutes registers the health probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB, d.Redis))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
}

// RegisterAuth registers token issuance under /v1/auth and the caller's
// profile under /v1/me.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := d.Auth
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1", middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateProfile)
}

// RegisterPublic registers cached, rate limited reads that need no token.
func RegisterPublic(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, "public")
	cached := func(tag string) echo.MiddlewareFunc { return middleware.NewRedisCache(d.Cache, d.Redis, tag) }

	g := e.Group("/v1", limit)
	g.GET("/leaderboard", d.Contributions.Leaderboard, cached(service.RouteLeaderboard))
	g.GET("/users/:id/stats", d.Contributions.Stats, cached(service.RouteStats))
	g.GET("/directory/:category", d.Contributions.Directory, cached(service.RouteDirectory))
	g.GET("/guides", d.Guides.List, cached(service.RouteGuides))
	g.GET("/guides/:id", d.Guides.Get, cached(service.RouteGuides))
}

// RegisterUser registers submission, guide and tour routes for any
// signed-in user.
func RegisterUser(e *echo.Echo, d Deps) {
	g := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, "user"),
	)
	c := d.Contributions
	g.POST("/submissions", c.Submit)
	g.GET("/submissions/:id", c.Get)
	g.GET("/my-submissions", c.Mine)
	g.POST("/guides", d.Guides.Create)

	t := d.Tours
	g.POST("/tours", t.Create)
	g.GET("/tours", t.List)
	g.GET("/tours/:id", t.Get)
	g.POST("/tours/:id/members", t.AddMember)
	g.DELETE("/tours/:id/members/:name", t.RemoveMember)
	g.POST("/tours/:id/expenses", t.AddExpense)
	g.DELETE("/tours/:id/expenses/:expenseID", t.RemoveExpense)
	g.POST("/tours/:id/places", t.AddPlace)
	g.DELETE("/tours/:id/places/:index", t.RemovePlace)
	g.POST("/tours/:id/todos", t.AddTodo)
	g.PATCH("/tours/:id/todos/:todoID", t.ToggleTodo)
	g.DELETE("/tours/:id/todos/:todoID", t.RemoveTodo)
	g.POST("/tours/:id/end", t.End)
	g.GET("/tours/:id/settlement", t.Settlement)
	g.POST("/tours/:id/convert", t.Convert)
}

// RegisterAdmin registers the moderation routes.  Only ADMIN tokens pass.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin", middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(model.RoleAdmin))
	c := d.Contributions
	g.GET("/submissions", c.Pending)
	g.POST("/submissions/:id/approve", c.Approve)
	g.POST("/submissions/:id/reject", c.Reject)
	g.POST("/reconcile", c.Reconcile)
}

// Register installs every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterPublic(e, d)
	RegisterUser(e, d)
	RegisterAdmin(e, d)
}
