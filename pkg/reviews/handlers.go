package reviews

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/auth"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/models"
)

type handler struct {
	reviewService *Service
}

func parseIDParam(c echo.Context, name, resource string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, errcodes.NotFound(resource)
	}
	return id, nil
}

func viewerIDFromContext(c echo.Context) *int {
	if user, ok := auth.UserFromEchoContext(c); ok {
		return &user.ID
	}
	return nil
}

// listForBook returns a page of a book's reviews.
func (h *handler) listForBook(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := parseIDParam(c, "id", "Book")
	if err != nil {
		return err
	}

	params := ListReviewsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reviews, total, err := h.reviewService.ListReviews(ctx, ListReviewsOptions{
		BookID:   &bookID,
		Limit:    params.Limit,
		Offset:   params.Offset,
		ViewerID: viewerIDFromContext(c),
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   total,
	}))
}

// listForUser returns a page of reviews written by a user.
func (h *handler) listForUser(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := parseIDParam(c, "id", "User")
	if err != nil {
		return err
	}

	params := ListReviewsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reviews, total, err := h.reviewService.ListReviews(ctx, ListReviewsOptions{
		UserID:   &userID,
		Limit:    params.Limit,
		Offset:   params.Offset,
		ViewerID: viewerIDFromContext(c),
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   total,
	}))
}

// retrieve returns a single review with its edit history.
func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseIDParam(c, "id", "Review")
	if err != nil {
		return err
	}

	review, err := h.reviewService.RetrieveReview(ctx, RetrieveReviewOptions{
		ID:       id,
		ViewerID: viewerIDFromContext(c),
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, review))
}

// create posts a review on a book.
func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	bookID, err := parseIDParam(c, "id", "Book")
	if err != nil {
		return err
	}

	params := CreateReviewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	review, err := h.reviewService.CreateReview(ctx, CreateReviewOptions{
		BookID:         bookID,
		UserID:         user.ID,
		Rating:         params.Rating,
		Title:          params.Title,
		Content:        params.Content,
		Pros:           params.Pros,
		Cons:           params.Cons,
		RecommendedFor: params.RecommendedFor,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, review))
}

// update edits a review. Only its author or an admin may edit, and a content
// change appends the previous content to the edit history.
func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id", "Review")
	if err != nil {
		return err
	}

	params := UpdateReviewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	review, err := h.reviewService.RetrieveReview(ctx, RetrieveReviewOptions{ID: id})
	if err != nil {
		return err
	}
	if !user.CanModify(review.UserID) {
		return errcodes.Forbidden("Editing this review")
	}

	opts := UpdateReviewOptions{}
	if params.Rating != nil && *params.Rating != review.Rating {
		review.Rating = *params.Rating
		opts.Columns = append(opts.Columns, "rating")
		opts.RatingChanged = true
	}
	if params.Title != nil {
		review.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Content != nil && *params.Content != review.Content {
		previous := review.Content
		opts.PreviousContent = &previous
		review.Content = *params.Content
		opts.Columns = append(opts.Columns, "content")
	}
	if params.Pros != nil {
		review.Pros = models.StringList(*params.Pros)
		opts.Columns = append(opts.Columns, "pros")
	}
	if params.Cons != nil {
		review.Cons = models.StringList(*params.Cons)
		opts.Columns = append(opts.Columns, "cons")
	}
	if params.RecommendedFor != nil {
		review.RecommendedFor = models.StringList(*params.RecommendedFor)
		opts.Columns = append(opts.Columns, "recommended_for")
	}

	err = h.reviewService.UpdateReview(ctx, review, opts)
	if err != nil {
		return err
	}

	review, err = h.reviewService.RetrieveReview(ctx, RetrieveReviewOptions{
		ID:       id,
		ViewerID: &user.ID,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, review))
}

// delete removes a review. Only its author or an admin may delete.
func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id", "Review")
	if err != nil {
		return err
	}

	review, err := h.reviewService.RetrieveReview(ctx, RetrieveReviewOptions{ID: id})
	if err != nil {
		return err
	}
	if !user.CanModify(review.UserID) {
		return errcodes.Forbidden("Deleting this review")
	}

	err = h.reviewService.DeleteReview(ctx, review)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"deleted": true,
	}))
}

// like toggles the viewer's like on a review.
func (h *handler) like(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id", "Review")
	if err != nil {
		return err
	}

	liked, count, err := h.reviewService.ToggleLike(ctx, id, user.ID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"liked":      liked,
		"like_count": count,
	}))
}

// helpful records the viewer's helpfulness vote on a review.
func (h *handler) helpful(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := parseIDParam(c, "id", "Review")
	if err != nil {
		return err
	}

	params := HelpfulVotePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	score, err := h.reviewService.VoteHelpful(ctx, id, user.ID, *params.IsHelpful)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"helpful_score": score,
	}))
}
