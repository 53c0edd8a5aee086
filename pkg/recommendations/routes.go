package recommendations

import (
	"github.com/labstack/echo/v4"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all recommendation routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		recommendationService: NewService(db),
	}

	e.GET("/users/:id/recommendations", h.list, authMiddleware.Authenticate)
}
