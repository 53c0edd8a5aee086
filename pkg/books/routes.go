package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/reviews"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all book routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService:   NewService(db),
		reviewService: reviews.NewService(db),
	}

	books := e.Group("/books")
	books.GET("", h.list)
	books.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	books.POST("", h.create, authMiddleware.Authenticate)
	books.PATCH("/:id", h.update, authMiddleware.Authenticate)
	books.DELETE("/:id", h.delete, authMiddleware.Authenticate)
}
