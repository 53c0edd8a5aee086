package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/binder"
	"github.com/shelftalk/shelftalk/pkg/books"
	"github.com/shelftalk/shelftalk/pkg/config"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/recommendations"
	"github.com/shelftalk/shelftalk/pkg/reviews"
	"github.com/shelftalk/shelftalk/pkg/testutils"
	"github.com/shelftalk/shelftalk/pkg/users"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.Auth.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	books.RegisterRoutes(e, db, authMiddleware)
	reviews.RegisterRoutes(e, db, authMiddleware)
	users.RegisterRoutes(e, db, authMiddleware)
	recommendations.RegisterRoutes(e, db, authMiddleware)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
