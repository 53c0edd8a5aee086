package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles user profiles, the follow graph, wishlists, and reading
// history.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RetrieveUser gets an active user by ID with their follower and following
// counts.
func (s *Service) RetrieveUser(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		ColumnExpr("u.*").
		ColumnExpr("(SELECT COUNT(*) FROM follows fo WHERE fo.followee_id = u.id) AS follower_count").
		ColumnExpr("(SELECT COUNT(*) FROM follows fo WHERE fo.follower_id = u.id) AS following_count").
		Where("u.id = ?", id).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// UpdateProfileOptions contains options for updating a profile.
type UpdateProfileOptions struct {
	Columns []string
}

// UpdateProfile persists the given columns of the user.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, opts UpdateProfileOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	opts.Columns = append(opts.Columns, "updated_at")
	user.UpdatedAt = time.Now()

	_, err := s.db.NewUpdate().
		Model(user).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// ToggleFollow flips whether follower follows followee. Toggling twice always
// restores the original state. Self-follows are rejected.
func (s *Service) ToggleFollow(ctx context.Context, followerID, followeeID int) (bool, error) {
	if followerID == followeeID {
		return false, errcodes.ValidationError("You cannot follow yourself.")
	}

	following := false

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("id = ?", followeeID).
			Where("is_active = ?", true).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("User")
		}

		res, err := tx.NewDelete().
			Model((*models.Follow)(nil)).
			Where("follower_id = ?", followerID).
			Where("followee_id = ?", followeeID).
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

		follow := &models.Follow{CreatedAt: time.Now(), FollowerID: followerID, FolloweeID: followeeID}
		_, err = tx.NewInsert().Model(follow).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		following = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return following, nil
}

// IsFollowing reports whether follower follows followee.
func (s *Service) IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*models.Follow)(nil)).
		Where("follower_id = ?", followerID).
		Where("followee_id = ?", followeeID).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// ListFollowOptions contains options for listing a user's followers or
// followees.
type ListFollowOptions struct {
	UserID int
	Limit  int
	Offset int
}

// ListFollowers returns the users who follow the given user.
func (s *Service) ListFollowers(ctx context.Context, opts ListFollowOptions) ([]*models.User, int, error) {
	return s.listFollowEdge(ctx, opts, "followee_id", "follower_id")
}

// ListFollowing returns the users the given user follows.
func (s *Service) ListFollowing(ctx context.Context, opts ListFollowOptions) ([]*models.User, int, error) {
	return s.listFollowEdge(ctx, opts, "follower_id", "followee_id")
}

func (s *Service) listFollowEdge(ctx context.Context, opts ListFollowOptions, whereColumn, joinColumn string) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Join("JOIN follows AS fo ON fo."+joinColumn+" = u.id").
		Where("fo."+whereColumn+" = ?", opts.UserID).
		Where("u.is_active = ?", true).
		Order("fo.created_at DESC").
		Order("u.id ASC")

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

	return users, total, nil
}

// ToggleWishlist flips whether the book is on the user's wishlist.
func (s *Service) ToggleWishlist(ctx context.Context, userID, bookID int) (bool, error) {
	added := false

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		res, err := tx.NewDelete().
			Model((*models.WishlistBook)(nil)).
			Where("user_id = ?", userID).
			Where("book_id = ?", bookID).
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

		entry := &models.WishlistBook{CreatedAt: time.Now(), UserID: userID, BookID: bookID}
		_, err = tx.NewInsert().Model(entry).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return added, nil
}

// ListWishlistOptions contains options for listing a user's wishlist.
type ListWishlistOptions struct {
	UserID int
	Limit  int
	Offset int
}

// ListWishlist returns the books on a user's wishlist, most recently added
// first.
func (s *Service) ListWishlist(ctx context.Context, opts ListWishlistOptions) ([]*models.WishlistBook, int, error) {
	entries := []*models.WishlistBook{}

	query := s.db.NewSelect().
		Model(&entries).
		Relation("Book").
		Where("wb.user_id = ?", opts.UserID).
		Order("wb.created_at DESC").
		Order("wb.id DESC")

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

	return entries, total, nil
}

// MarkRead records that the user finished the book and removes it from their
// wishlist. Marking an already-read book again is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, bookID int, finishedAt time.Time) (*models.BookRead, error) {
	entry := &models.BookRead{
		UserID:     userID,
		BookID:     bookID,
		FinishedAt: finishedAt,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		_, err = tx.NewInsert().
			Model(entry).
			On("CONFLICT (user_id, book_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.WishlistBook)(nil)).
			Where("user_id = ?", userID).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// UnmarkRead removes the book from the user's reading history.
func (s *Service) UnmarkRead(ctx context.Context, userID, bookID int) error {
	res, err := s.db.NewDelete().
		Model((*models.BookRead)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

// ListBooksReadOptions contains options for listing a user's reading history.
type ListBooksReadOptions struct {
	UserID int
	Limit  int
	Offset int
}

// ListBooksRead returns the books a user has finished, most recent first.
func (s *Service) ListBooksRead(ctx context.Context, opts ListBooksReadOptions) ([]*models.BookRead, int, error) {
	entries := []*models.BookRead{}

	query := s.db.NewSelect().
		Model(&entries).
		Relation("Book").
		Where("br.user_id = ?", opts.UserID).
		Order("br.finished_at DESC").
		Order("br.id DESC")

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

	return entries, total, nil
}

// ReadingStats summarizes a user's activity on the site.
type ReadingStats struct {
	BooksRead         int            `json:"books_read"`
	ReviewsWritten    int            `json:"reviews_written"`
	AverageRating     float64        `json:"average_rating_given"`
	GenreDistribution map[string]int `json:"genre_distribution"`
	FollowerCount     int            `json:"follower_count"`
	FollowingCount    int            `json:"following_count"`
}

// RetrieveReadingStats computes a user's reading statistics. The genre
// distribution covers the books they have finished.
func (s *Service) RetrieveReadingStats(ctx context.Context, userID int) (*ReadingStats, error) {
	stats := &ReadingStats{GenreDistribution: map[string]int{}}

	var counts struct {
		BooksRead      int `bun:"books_read"`
		FollowerCount  int `bun:"follower_count"`
		FollowingCount int `bun:"following_count"`
	}
	err := s.db.NewSelect().
		ColumnExpr("(SELECT COUNT(*) FROM books_read WHERE user_id = ?) AS books_read", userID).
		ColumnExpr("(SELECT COUNT(*) FROM follows WHERE followee_id = ?) AS follower_count", userID).
		ColumnExpr("(SELECT COUNT(*) FROM follows WHERE follower_id = ?) AS following_count", userID).
		Scan(ctx, &counts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.BooksRead = counts.BooksRead
	stats.FollowerCount = counts.FollowerCount
	stats.FollowingCount = counts.FollowingCount

	var reviewAgg struct {
		Count   int     `bun:"count"`
		Average float64 `bun:"average"`
	}
	err = s.db.NewSelect().
		Model((*models.Review)(nil)).
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(AVG(rating), 0) AS average").
		Where("user_id = ?", userID).
		Scan(ctx, &reviewAgg)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.ReviewsWritten = reviewAgg.Count
	stats.AverageRating = reviewAgg.Average

	var genreRows []struct {
		Genre string `bun:"genre"`
		Count int    `bun:"count"`
	}
	err = s.db.NewSelect().
		Model((*models.BookRead)(nil)).
		ColumnExpr("b.genre AS genre").
		ColumnExpr("COUNT(*) AS count").
		Join("JOIN books AS b ON b.id = br.book_id").
		Where("br.user_id = ?", userID).
		Group("b.genre").
		Scan(ctx, &genreRows)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, row := range genreRows {
		stats.GenreDistribution[row.Genre] = row.Count
	}

	return stats, nil
}
