package reviews

import (
	"github.com/labstack/echo/v4"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all review routes, including the nested book and
// user listings.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		reviewService: NewService(db),
	}

	e.GET("/books/:id/reviews", h.listForBook, authMiddleware.AuthenticateOptional)
	e.POST("/books/:id/reviews", h.create, authMiddleware.Authenticate)
	e.GET("/users/:id/reviews", h.listForUser, authMiddleware.AuthenticateOptional)

	reviews := e.Group("/reviews")
	reviews.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	reviews.PATCH("/:id", h.update, authMiddleware.Authenticate)
	reviews.DELETE("/:id", h.delete, authMiddleware.Authenticate)
	reviews.POST("/:id/like", h.like, authMiddleware.Authenticate)
	reviews.POST("/:id/helpful", h.helpful, authMiddleware.Authenticate)
}
