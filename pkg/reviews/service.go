package reviews

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles review operations. Every mutation that can change a book's
// review set runs in a transaction together with the rating recompute, so the
// book's derived aggregates never drift from its reviews.
type Service struct {
	db *bun.DB
}

// NewService creates a new reviews service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateReviewOptions contains options for creating a review.
type CreateReviewOptions struct {
	BookID         int
	UserID         int
	Rating         int
	Title          string
	Content        string
	Pros           []string
	Cons           []string
	RecommendedFor []string
}

// CreateReview creates a review. A user may review a given book at most once.
func (s *Service) CreateReview(ctx context.Context, opts CreateReviewOptions) (*models.Review, error) {
	now := time.Now()
	review := &models.Review{
		CreatedAt:      now,
		UpdatedAt:      now,
		BookID:         opts.BookID,
		UserID:         opts.UserID,
		Rating:         opts.Rating,
		Title:          opts.Title,
		Content:        opts.Content,
		Pros:           models.StringList(opts.Pros),
		Cons:           models.StringList(opts.Cons),
		RecommendedFor: models.StringList(opts.RecommendedFor),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", opts.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		exists, err = tx.NewSelect().
			Model((*models.Review)(nil)).
			Where("book_id = ?", opts.BookID).
			Where("user_id = ?", opts.UserID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return errcodes.Conflict("You have already reviewed this book")
		}

		_, err = tx.NewInsert().Model(review).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return s.recomputeBookRating(ctx, tx, opts.BookID)
	})
	if err != nil {
		return nil, err
	}

	return s.RetrieveReview(ctx, RetrieveReviewOptions{ID: review.ID})
}

// RetrieveReviewOptions contains options for retrieving a review.
type RetrieveReviewOptions struct {
	ID       int
	ViewerID *int
}

// RetrieveReview gets a review by ID with its derived counts and edit
// history.
func (s *Service) RetrieveReview(ctx context.Context, opts RetrieveReviewOptions) (*models.Review, error) {
	review := &models.Review{}
	query := s.withDerivedColumns(s.db.NewSelect().Model(review), opts.ViewerID).
		Relation("User").
		Relation("Edits").
		Where("r.id = ?", opts.ID)

	err := query.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Review")
		}
		return nil, errors.WithStack(err)
	}

	review.ComputeHelpfulScore()
	return review, nil
}

// RetrieveUserReviewForBook returns the user's review of the book, or nil if
// they haven't reviewed it.
func (s *Service) RetrieveUserReviewForBook(ctx context.Context, bookID, userID int) (*models.Review, error) {
	review := &models.Review{}
	err := s.withDerivedColumns(s.db.NewSelect().Model(review), &userID).
		Where("r.book_id = ?", bookID).
		Where("r.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	review.ComputeHelpfulScore()
	return review, nil
}

// ListReviewsOptions contains options for listing reviews.
type ListReviewsOptions struct {
	BookID   *int
	UserID   *int
	Limit    int
	Offset   int
	ViewerID *int
}

// ListReviews returns a page of reviews with derived counts and the total.
func (s *Service) ListReviews(ctx context.Context, opts ListReviewsOptions) ([]*models.Review, int, error) {
	reviews := []*models.Review{}

	query := s.withDerivedColumns(s.db.NewSelect().Model(&reviews), opts.ViewerID).
		Relation("User").
		Order("r.created_at DESC").
		Order("r.id DESC")

	if opts.BookID != nil {
		query = query.Where("r.book_id = ?", *opts.BookID)
	}
	if opts.UserID != nil {
		query = query.Where("r.user_id = ?", *opts.UserID).Relation("Book")
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, review := range reviews {
		review.ComputeHelpfulScore()
	}

	return reviews, total, nil
}

// UpdateReviewOptions contains options for updating a review.
type UpdateReviewOptions struct {
	Columns []string
	// PreviousContent is appended to the edit history when the content
	// changed.
	PreviousContent *string
	// RatingChanged triggers a recompute of the book's aggregates.
	RatingChanged bool
}

// UpdateReview persists the given columns and, in the same transaction,
// appends edit history and recomputes the book's rating when needed.
func (s *Service) UpdateReview(ctx context.Context, review *models.Review, opts UpdateReviewOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	opts.Columns = append(opts.Columns, "updated_at")
	review.UpdatedAt = time.Now()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if opts.PreviousContent != nil {
			edit := &models.ReviewEdit{
				ReviewID:        review.ID,
				EditedAt:        time.Now(),
				PreviousContent: *opts.PreviousContent,
			}
			_, err := tx.NewInsert().Model(edit).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err := tx.NewUpdate().
			Model(review).
			Column(opts.Columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if opts.RatingChanged {
			return s.recomputeBookRating(ctx, tx, review.BookID)
		}
		return nil
	})
}

// DeleteReview removes a review and recomputes the parent book's aggregates
// in the same transaction.
func (s *Service) DeleteReview(ctx context.Context, review *models.Review) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Review)(nil)).
			Where("id = ?", review.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Review")
		}

		return s.recomputeBookRating(ctx, tx, review.BookID)
	})
}

// ToggleLike flips the user's like on a review. It returns the resulting
// liked state and like count.
func (s *Service) ToggleLike(ctx context.Context, reviewID, userID int) (bool, int, error) {
	liked := false

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Review)(nil)).
			Where("id = ?", reviewID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Review")
		}

		res, err := tx.NewDelete().
			Model((*models.ReviewLike)(nil)).
			Where("review_id = ?", reviewID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected > 0 {
			return nil
		}

		like := &models.ReviewLike{ReviewID: reviewID, UserID: userID}
		_, err = tx.NewInsert().Model(like).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	count, err := s.db.NewSelect().
		Model((*models.ReviewLike)(nil)).
		Where("review_id = ?", reviewID).
		Count(ctx)
	if err != nil {
		return false, 0, errors.WithStack(err)
	}

	return liked, count, nil
}

// VoteHelpful records the user's helpfulness vote on a review. A repeat vote
// overwrites the previous one, so the vote count never grows for the same
// user. It returns the resulting helpfulness score.
func (s *Service) VoteHelpful(ctx context.Context, reviewID, userID int, isHelpful bool) (float64, error) {
	exists, err := s.db.NewSelect().
		Model((*models.Review)(nil)).
		Where("id = ?", reviewID).
		Exists(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if !exists {
		return 0, errcodes.NotFound("Review")
	}

	vote := &models.HelpfulVote{
		ReviewID:  reviewID,
		UserID:    userID,
		IsHelpful: isHelpful,
	}
	_, err = s.db.NewInsert().
		Model(vote).
		On("CONFLICT (review_id, user_id) DO UPDATE").
		Set("is_helpful = EXCLUDED.is_helpful").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return s.helpfulScore(ctx, reviewID)
}

func (s *Service) helpfulScore(ctx context.Context, reviewID int) (float64, error) {
	var counts struct {
		Yes   int `bun:"yes"`
		Total int `bun:"total"`
	}
	err := s.db.NewSelect().
		Model((*models.HelpfulVote)(nil)).
		ColumnExpr("COUNT(*) FILTER (WHERE is_helpful) AS yes").
		ColumnExpr("COUNT(*) AS total").
		Where("review_id = ?", reviewID).
		Scan(ctx, &counts)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	if counts.Total == 0 {
		return 0, nil
	}
	return float64(counts.Yes) / float64(counts.Total) * 100, nil
}

// recomputeBookRating recalculates a book's average rating and ratings count
// from its full review set. The average is rounded half-up to one decimal;
// a book with no reviews gets 0 for both.
func (s *Service) recomputeBookRating(ctx context.Context, db bun.IDB, bookID int) error {
	var agg struct {
		Average float64 `bun:"average"`
		Count   int     `bun:"count"`
	}
	err := db.NewSelect().
		Model((*models.Review)(nil)).
		ColumnExpr("COALESCE(AVG(rating), 0) AS average").
		ColumnExpr("COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(ctx, &agg)
	if err != nil {
		return errors.WithStack(err)
	}

	average := math.Round(agg.Average*10) / 10

	_, err = db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("average_rating = ?", average).
		Set("ratings_count = ?", agg.Count).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// withDerivedColumns adds the like and helpful-vote counts to a review
// select, plus the viewer's like state when authenticated.
func (s *Service) withDerivedColumns(query *bun.SelectQuery, viewerID *int) *bun.SelectQuery {
	query = query.
		ColumnExpr("r.*").
		ColumnExpr("(SELECT COUNT(*) FROM review_likes rl WHERE rl.review_id = r.id) AS like_count").
		ColumnExpr("(SELECT COUNT(*) FROM helpful_votes hv WHERE hv.review_id = r.id AND hv.is_helpful) AS helpful_yes").
		ColumnExpr("(SELECT COUNT(*) FROM helpful_votes hv WHERE hv.review_id = r.id) AS helpful_total")

	if viewerID != nil {
		query = query.ColumnExpr(
			"EXISTS (SELECT 1 FROM review_likes rl WHERE rl.review_id = r.id AND rl.user_id = ?) AS liked_by_viewer",
			*viewerID,
		)
	}

	return query
}
