package recommendations

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
)

type handler struct {
	recommendationService *Service
}

// list returns book recommendations for the authenticated user. Users can
// only see their own recommendations.
func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errcodes.NotFound("User")
	}
	if id != user.ID {
		return errcodes.Forbidden("Viewing another user's recommendations")
	}

	books, err := h.recommendationService.RecommendBooks(ctx, user.ID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"recommendations": books,
	}))
}
