package users

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/models"
)

type handler struct {
	userService *Service
}

func parseIDParam(c echo.Context, name, resource string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, errcodes.NotFound(resource)
	}
	return id, nil
}

// retrieve returns a user's public profile. When the viewer is authenticated
// it also reports whether they follow the user.
func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseIDParam(c, "id", "User")
	if err != nil {
		return err
	}

	user, err := h.userService.RetrieveUser(ctx, id)
	if err != nil {
		return err
	}
	// Email is private to the profile owner.
	if viewer, ok := auth.UserFromEchoContext(c); !ok || viewer.ID != user.ID {
		user.Email = ""
	}

	response := map[string]interface{}{
		"user": user,
	}
	if viewer, ok := auth.UserFromEchoContext(c); ok && viewer.ID != user.ID {
		following, err := h.userService.IsFollowing(ctx, viewer.ID, user.ID)
		if err != nil {
			return err
		}
		response["following"] = following
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

// updateProfile edits the authenticated user's own profile.
func (h *handler) updateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := UpdateProfilePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.DisplayName != nil {
		user.DisplayName = params.DisplayName
		columns = append(columns, "display_name")
	}
	if params.Bio != nil {
		user.Bio = params.Bio
		columns = append(columns, "bio")
	}
	if params.FavoriteGenres != nil {
		user.FavoriteGenres = models.StringList(*params.FavoriteGenres)
		columns = append(columns, "favorite_genres")
	}

	err := h.userService.UpdateProfile(ctx, user, UpdateProfileOptions{Columns: columns})
	if err != nil {
		return err
	}

	user, err = h.userService.RetrieveUser(ctx, user.ID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

// follow toggles whether the viewer follows the user.
func (h *handler) follow(c echo.Context) error {
	ctx := c.Request().Context()

	viewer, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id", "User")
	if err != nil {
		return err
	}

	following, err := h.userService.ToggleFollow(ctx, viewer.ID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"following": following,
	}))
}

// followers lists the users who follow the given user.
func (h *handler) followers(c echo.Context) error {
	return h.listFollowEdge(c, h.userService.ListFollowers, "followers")
}

// following lists the users the given user follows.
func (h *handler) following(c echo.Context) error {
	return h.listFollowEdge(c, h.userService.ListFollowing, "following")
}

func (h *handler) listFollowEdge(
	c echo.Context,
	list func(ctx context.Context, opts ListFollowOptions) ([]*models.User, int, error),
	key string,
) error {
	ctx := c.Request().Context()

	id, err := parseIDParam(c, "id", "User")
	if err != nil {
		return err
	}

	params := PageQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := list(ctx, ListFollowOptions{
		UserID: id,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}
	for _, u := range users {
		u.Email = ""
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		key:     users,
		"total": total,
	}))
}

// wishlist lists the authenticated user's wishlist.
func (h *handler) wishlist(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := PageQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, total, err := h.userService.ListWishlist(ctx, ListWishlistOptions{
		UserID: user.ID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"wishlist": entries,
		"total":    total,
	}))
}

// toggleWishlist flips whether the book is on the viewer's wishlist.
func (h *handler) toggleWishlist(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	bookID, err := parseIDParam(c, "bookId", "Book")
	if err != nil {
		return err
	}

	added, err := h.userService.ToggleWishlist(ctx, user.ID, bookID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"wishlisted": added,
	}))
}

// booksRead lists the books a user has finished.
func (h *handler) booksRead(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseIDParam(c, "id", "User")
	if err != nil {
		return err
	}

	params := PageQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, total, err := h.userService.ListBooksRead(ctx, ListBooksReadOptions{
		UserID: id,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"books_read": entries,
		"total":      total,
	}))
}

// markRead records that the viewer finished the book.
func (h *handler) markRead(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	bookID, err := parseIDParam(c, "bookId", "Book")
	if err != nil {
		return err
	}

	params := MarkReadPayload{}
	c.Set("disallow_empty_body", false)
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	finishedAt := time.Now()
	if params.FinishedAt != nil {
		finishedAt, err = time.Parse("2006-01-02", *params.FinishedAt)
		if err != nil {
			return errcodes.ValidationError("finished_at must be a YYYY-MM-DD date.")
		}
	}

	entry, err := h.userService.MarkRead(ctx, user.ID, bookID, finishedAt)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

// unmarkRead removes the book from the viewer's reading history.
func (h *handler) unmarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	bookID, err := parseIDParam(c, "bookId", "Book")
	if err != nil {
		return err
	}

	err = h.userService.UnmarkRead(ctx, user.ID, bookID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"deleted": true,
	}))
}

// readingStats returns a user's activity summary.
func (h *handler) readingStats(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseIDParam(c, "id", "User")
	if err != nil {
		return err
	}

	if _, err := h.userService.RetrieveUser(ctx, id); err != nil {
		return err
	}

	stats, err := h.userService.RetrieveReadingStats(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, stats))
}
