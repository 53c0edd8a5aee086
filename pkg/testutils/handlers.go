package testutils

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// createUser creates a test user.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	email := req.Email
	if email == "" {
		email = req.Username + "@test.local"
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     req.Username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}

	_, err = h.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
	})
}

// createBookRequest is the request body for creating a test book.
type createBookRequest struct {
	Title         string  `json:"title" validate:"required"`
	Author        string  `json:"author" validate:"required"`
	Genre         string  `json:"genre" validate:"required"`
	AddedByID     int     `json:"added_by_id" validate:"required"`
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int     `json:"ratings_count"`
}

// createBook creates a test book, optionally with pre-seeded aggregates.
// POST /test/books.
func (h *handler) createBook(c echo.Context) error {
	ctx := c.Request().Context()

	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	now := time.Now()
	book := &models.Book{
		CreatedAt:     now,
		UpdatedAt:     now,
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		AddedByID:     req.AddedByID,
		AverageRating: req.AverageRating,
		RatingsCount:  req.RatingsCount,
	}

	_, err := h.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create book")
	}

	return c.JSON(http.StatusCreated, book)
}

// resetResponse is the response body for resetting test data.
type resetResponse struct {
	Deleted bool `json:"deleted"`
}

// reset deletes all data. Books go first so review rows cascade before the
// user delete runs.
// DELETE /test/reset.
func (h *handler) reset(c echo.Context) error {
	ctx := c.Request().Context()

	for _, model := range []interface{}{
		(*models.Book)(nil),
		(*models.User)(nil),
	} {
		_, err := h.db.NewDelete().
			Model(model).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to reset test data")
		}
	}

	return c.JSON(http.StatusOK, resetResponse{Deleted: true})
}
