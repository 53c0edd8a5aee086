package users

import (
	"github.com/labstack/echo/v4"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		userService: NewService(db),
	}

	users := e.Group("/users")
	users.PATCH("/me", h.updateProfile, authMiddleware.Authenticate)
	users.GET("/me/wishlist", h.wishlist, authMiddleware.Authenticate)
	users.POST("/me/wishlist/:bookId", h.toggleWishlist, authMiddleware.Authenticate)
	users.POST("/me/read/:bookId", h.markRead, authMiddleware.Authenticate)
	users.DELETE("/me/read/:bookId", h.unmarkRead, authMiddleware.Authenticate)

	users.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	users.POST("/:id/follow", h.follow, authMiddleware.Authenticate)
	users.GET("/:id/followers", h.followers)
	users.GET("/:id/following", h.following)
	users.GET("/:id/read", h.booksRead)
	users.GET("/:id/reading-stats", h.readingStats)
}
