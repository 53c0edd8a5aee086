package books

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/shelftalk/shelftalk/pkg/binder"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/shelftalk/shelftalk/pkg/reviews"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newBooksTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func newBooksHandler(db *bun.DB) *handler {
	return &handler{
		bookService:   NewService(db),
		reviewService: reviews.NewService(db),
	}
}

func TestHandlerCreate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := newBooksHandler(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "adder")

	payload := `{"title":"Dune","author":"Frank Herbert","genre":"science-fiction","isbn":"9780441172719"}`
	c, rr := newBooksTestContext(t, http.MethodPost, "/books", payload)
	c.SetPath("/books")
	c.Set("user_id", user.ID)
	c.Set("user", user)

	err := h.create(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var book models.Book
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &book))
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, user.ID, book.AddedByID)
}

func TestHandlerCreate_RejectsUnknownGenre(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := newBooksHandler(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "adder")

	payload := `{"title":"Dune","author":"Frank Herbert","genre":"space-opera"}`
	c, _ := newBooksTestContext(t, http.MethodPost, "/books", payload)
	c.SetPath("/books")
	c.Set("user_id", user.ID)
	c.Set("user", user)

	err := h.create(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestHandlerRetrieve_IncludesReviewsAndHistogram(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := newBooksHandler(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book, err := h.bookService.CreateBook(ctx, CreateBookOptions{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Genre:     "science-fiction",
		AddedByID: user.ID,
	})
	require.NoError(t, err)

	_, err = h.reviewService.CreateReview(ctx, reviews.CreateReviewOptions{
		BookID:  book.ID,
		UserID:  user.ID,
		Rating:  4,
		Title:   "Solid",
		Content: "A worthy read even on a second pass.",
	})
	require.NoError(t, err)

	c, rr := newBooksTestContext(t, http.MethodGet, "/books/"+strconv.Itoa(book.ID), "")
	c.SetPath("/books/:id")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(book.ID))
	c.Set("user_id", user.ID)
	c.Set("user", user)

	err = h.retrieve(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Book            *models.Book     `json:"book"`
		Reviews         []*models.Review `json:"reviews"`
		ReviewsTotal    int              `json:"reviews_total"`
		RatingHistogram map[string]int   `json:"rating_histogram"`
		ViewerReview    *models.Review   `json:"viewer_review"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, 4.0, response.Book.AverageRating)
	assert.Len(t, response.Reviews, 1)
	assert.Equal(t, 1, response.ReviewsTotal)
	assert.Equal(t, 1, response.RatingHistogram["4"])
	require.NotNil(t, response.ViewerReview)
	assert.Equal(t, 4, response.ViewerReview.Rating)
}

func TestHandlerUpdate_OnlyAdderOrAdmin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := newBooksHandler(db)
	ctx := context.Background()

	adder := createTestUser(ctx, t, db, "adder")
	stranger := createTestUser(ctx, t, db, "stranger")

	book, err := h.bookService.CreateBook(ctx, CreateBookOptions{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Genre:     "science-fiction",
		AddedByID: adder.ID,
	})
	require.NoError(t, err)

	c, _ := newBooksTestContext(t, http.MethodPatch, "/books/"+strconv.Itoa(book.ID), `{"title":"Hijacked"}`)
	c.SetPath("/books/:id")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(book.ID))
	c.Set("user_id", stranger.ID)
	c.Set("user", stranger)

	err = h.update(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusForbidden, codeErr.HTTPCode)
}

func TestHandlerUpdate_FeaturedIsAdminOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := newBooksHandler(db)
	ctx := context.Background()

	adder := createTestUser(ctx, t, db, "adder")

	book, err := h.bookService.CreateBook(ctx, CreateBookOptions{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Genre:     "science-fiction",
		AddedByID: adder.ID,
	})
	require.NoError(t, err)

	c, _ := newBooksTestContext(t, http.MethodPatch, "/books/"+strconv.Itoa(book.ID), `{"featured":true}`)
	c.SetPath("/books/:id")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(book.ID))
	c.Set("user_id", adder.ID)
	c.Set("user", adder)

	err = h.update(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusForbidden, codeErr.HTTPCode)
}
