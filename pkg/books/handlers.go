package books

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/reviews"
)

type handler struct {
	bookService   *Service
	reviewService *reviews.Service
}

func parseIDParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, errcodes.NotFound("Book")
	}
	return id, nil
}

// list returns a filtered page of the catalog.
func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooks(ctx, ListBooksOptions{
		Limit:    params.Limit,
		Offset:   params.Offset,
		Genre:    params.Genre,
		Author:   params.Author,
		Search:   params.Search,
		Featured: params.Featured,
		Sort:     params.Sort,
		Order:    params.Order,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"books": books,
		"total": total,
	}))
}

// retrieve returns a book with a page of its reviews, the rating histogram,
// and the viewer's own review when authenticated.
func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	params := RetrieveBookQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}

	var viewerID *int
	if user, ok := auth.UserFromEchoContext(c); ok {
		viewerID = &user.ID
	}

	bookReviews, reviewTotal, err := h.reviewService.ListReviews(ctx, reviews.ListReviewsOptions{
		BookID:   &id,
		Limit:    params.ReviewsLimit,
		Offset:   params.ReviewsOffset,
		ViewerID: viewerID,
	})
	if err != nil {
		return err
	}

	histogram, err := h.bookService.RatingHistogram(ctx, id)
	if err != nil {
		return err
	}

	response := map[string]interface{}{
		"book":             book,
		"reviews":          bookReviews,
		"reviews_total":    reviewTotal,
		"rating_histogram": histogram,
	}

	if viewerID != nil {
		viewerReview, err := h.reviewService.RetrieveUserReviewForBook(ctx, id, *viewerID)
		if err != nil {
			return err
		}
		response["viewer_review"] = viewerReview
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

// create adds a book to the catalog.
func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.CreateBook(ctx, CreateBookOptions{
		Title:       params.Title,
		Author:      params.Author,
		ISBN:        params.ISBN,
		Description: params.Description,
		Genre:       params.Genre,
		AddedByID:   user.ID,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

// update edits a book. Only the user who added it or an admin may edit.
func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(book.AddedByID) {
		return errcodes.Forbidden("Editing this book")
	}

	columns := []string{}
	if params.Title != nil {
		book.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Author != nil {
		book.Author = *params.Author
		columns = append(columns, "author")
	}
	if params.ISBN != nil {
		book.ISBN = params.ISBN
		columns = append(columns, "isbn")
	}
	if params.Description != nil {
		book.Description = params.Description
		columns = append(columns, "description")
	}
	if params.Genre != nil {
		book.Genre = *params.Genre
		columns = append(columns, "genre")
	}
	if params.Featured != nil {
		if !user.IsAdmin() {
			return errcodes.Forbidden("Featuring a book")
		}
		book.Featured = *params.Featured
		columns = append(columns, "featured")
	}

	err = h.bookService.UpdateBook(ctx, book, UpdateBookOptions{Columns: columns})
	if err != nil {
		return err
	}

	book, err = h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

// delete removes a book and, by cascade, its reviews.
func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(book.AddedByID) {
		return errcodes.Forbidden("Deleting this book")
	}

	err = h.bookService.DeleteBook(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"deleted": true,
	}))
}
