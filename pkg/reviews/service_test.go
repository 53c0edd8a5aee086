package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/migrations"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	// Cascading deletes depend on foreign key enforcement.
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestUser(ctx context.Context, t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleMember,
		IsActive:     true,
	}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return user
}

func createTestBook(ctx context.Context, t *testing.T, db *bun.DB, title string, addedByID int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:     title,
		Author:    "Test Author",
		Genre:     "fantasy",
		AddedByID: addedByID,
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	return book
}

func retrieveBook(ctx context.Context, t *testing.T, db *bun.DB, id int) *models.Book {
	t.Helper()

	book := &models.Book{}
	err := db.NewSelect().Model(book).Where("id = ?", id).Scan(ctx)
	require.NoError(t, err)

	return book
}

func TestServiceCreateReview_RecomputesBookRating(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	owner := createTestUser(ctx, t, db, "owner")
	book := createTestBook(ctx, t, db, "The Hobbit", owner.ID)

	for i, rating := range []int{5, 4, 3} {
		user := createTestUser(ctx, t, db, fmt.Sprintf("reader%d", i))
		review, err := svc.CreateReview(ctx, CreateReviewOptions{
			BookID:  book.ID,
			UserID:  user.ID,
			Rating:  rating,
			Title:   "A review",
			Content: "This book was quite the experience.",
		})
		require.NoError(t, err)
		assert.False(t, review.CreatedAt.IsZero())
	}

	updated := retrieveBook(ctx, t, db, book.ID)
	assert.Equal(t, 4.0, updated.AverageRating)
	assert.Equal(t, 3, updated.RatingsCount)

	// A fourth review pulls the average down.
	user := createTestUser(ctx, t, db, "reader3")
	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  user.ID,
		Rating:  2,
		Title:   "Not for me",
		Content: "I could not get into this one at all.",
	})
	require.NoError(t, err)

	updated = retrieveBook(ctx, t, db, book.ID)
	assert.Equal(t, 3.5, updated.AverageRating)
	assert.Equal(t, 4, updated.RatingsCount)

	// Deleting it restores the previous aggregates.
	err = svc.DeleteReview(ctx, review)
	require.NoError(t, err)

	updated = retrieveBook(ctx, t, db, book.ID)
	assert.Equal(t, 4.0, updated.AverageRating)
	assert.Equal(t, 3, updated.RatingsCount)
}

func TestServiceCreateReview_RoundsHalfUp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	owner := createTestUser(ctx, t, db, "owner")
	book := createTestBook(ctx, t, db, "Dune", owner.ID)

	// 4 + 3 averages to 3.5, which stays 3.5; 4 + 4 + 3 averages to
	// 3.666..., which rounds to 3.7.
	for i, rating := range []int{4, 4, 3} {
		user := createTestUser(ctx, t, db, fmt.Sprintf("reader%d", i))
		_, err := svc.CreateReview(ctx, CreateReviewOptions{
			BookID:  book.ID,
			UserID:  user.ID,
			Rating:  rating,
			Title:   "A review",
			Content: "This book was quite the experience.",
		})
		require.NoError(t, err)
	}

	updated := retrieveBook(ctx, t, db, book.ID)
	assert.Equal(t, 3.7, updated.AverageRating)
}

func TestServiceCreateReview_RejectsDuplicate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "Dune", user.ID)

	opts := CreateReviewOptions{
		BookID:  book.ID,
		UserID:  user.ID,
		Rating:  5,
		Title:   "Masterpiece",
		Content: "The spice must flow, and so must my praise.",
	}
	_, err := svc.CreateReview(ctx, opts)
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.Conflict("You have already reviewed this book"))

	updated := retrieveBook(ctx, t, db, book.ID)
	assert.Equal(t, 1, updated.RatingsCount)
}

func TestServiceCreateReview_MissingBook(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")

	_, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  9999,
		UserID:  user.ID,
		Rating:  5,
		Title:   "Ghost review",
		Content: "This book does not even exist yet.",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestServiceUpdateReview_AppendsEditHistory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "Dune", user.ID)

	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  user.ID,
		Rating:  3,
		Title:   "First impressions",
		Content: "Still making up my mind about this one.",
	})
	require.NoError(t, err)

	previous := review.Content
	review.Content = "On reflection, this book rewards patience."
	review.Rating = 5
	err = svc.UpdateReview(ctx, review, UpdateReviewOptions{
		Columns:         []string{"content", "rating"},
		PreviousContent: &previous,
		RatingChanged:   true,
	})
	require.NoError(t, err)

	updated, err := svc.RetrieveReview(ctx, RetrieveReviewOptions{ID: review.ID})
	require.NoError(t, err)
	assert.Equal(t, "On reflection, this book rewards patience.", updated.Content)
	assert.Equal(t, 5, updated.Rating)
	require.Len(t, updated.Edits, 1)
	assert.Equal(t, previous, updated.Edits[0].PreviousContent)

	updatedBook := retrieveBook(ctx, t, db, book.ID)
	assert.Equal(t, 5.0, updatedBook.AverageRating)
}

func TestServiceUpdateReview_NoEditEntryWithoutContentChange(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "Dune", user.ID)

	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  user.ID,
		Rating:  3,
		Title:   "First impressions",
		Content: "Still making up my mind about this one.",
	})
	require.NoError(t, err)

	review.Rating = 4
	err = svc.UpdateReview(ctx, review, UpdateReviewOptions{
		Columns:       []string{"rating"},
		RatingChanged: true,
	})
	require.NoError(t, err)

	updated, err := svc.RetrieveReview(ctx, RetrieveReviewOptions{ID: review.ID})
	require.NoError(t, err)
	assert.Empty(t, updated.Edits)
}

func TestServiceDeleteReview_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	err := svc.DeleteReview(ctx, &models.Review{ID: 9999, BookID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotFound("Review"))
}

func TestServiceToggleLike_IsInvolutive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createTestUser(ctx, t, db, "author")
	liker := createTestUser(ctx, t, db, "liker")
	book := createTestBook(ctx, t, db, "Dune", author.ID)

	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  author.ID,
		Rating:  5,
		Title:   "Masterpiece",
		Content: "The spice must flow, and so must my praise.",
	})
	require.NoError(t, err)

	liked, count, err := svc.ToggleLike(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = svc.ToggleLike(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	liked, count, err = svc.ToggleLike(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)
}

func TestServiceToggleLike_MissingReview(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "liker")

	_, _, err := svc.ToggleLike(ctx, 9999, user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.NotFound("Review"))
}

func TestServiceVoteHelpful_OverwritesInPlace(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createTestUser(ctx, t, db, "author")
	voterA := createTestUser(ctx, t, db, "votera")
	voterB := createTestUser(ctx, t, db, "voterb")
	book := createTestBook(ctx, t, db, "Dune", author.ID)

	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  author.ID,
		Rating:  5,
		Title:   "Masterpiece",
		Content: "The spice must flow, and so must my praise.",
	})
	require.NoError(t, err)

	score, err := svc.VoteHelpful(ctx, review.ID, voterA.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)

	score, err = svc.VoteHelpful(ctx, review.ID, voterB.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)

	// Repeat votes never add rows; voter A changing their mind flips the
	// score to 0 out of the same 2 votes.
	score, err = svc.VoteHelpful(ctx, review.ID, voterA.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	count, err := db.NewSelect().
		Model((*models.HelpfulVote)(nil)).
		Where("review_id = ?", review.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceRetrieveReview_DerivedFields(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createTestUser(ctx, t, db, "author")
	viewer := createTestUser(ctx, t, db, "viewer")
	book := createTestBook(ctx, t, db, "Dune", author.ID)

	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  author.ID,
		Rating:  5,
		Title:   "Masterpiece",
		Content: "The spice must flow, and so must my praise.",
		Pros:    []string{"worldbuilding", "prose"},
		Cons:    []string{"pacing"},
	})
	require.NoError(t, err)

	_, _, err = svc.ToggleLike(ctx, review.ID, viewer.ID)
	require.NoError(t, err)
	_, err = svc.VoteHelpful(ctx, review.ID, viewer.ID, true)
	require.NoError(t, err)

	got, err := svc.RetrieveReview(ctx, RetrieveReviewOptions{ID: review.ID, ViewerID: &viewer.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.True(t, got.LikedByViewer)
	assert.Equal(t, 100.0, got.HelpfulScore)
	assert.Equal(t, models.StringList{"worldbuilding", "prose"}, got.Pros)
	require.NotNil(t, got.User)
	assert.Equal(t, "author", got.User.Username)

	// Without votes the score reads 0, not NaN.
	other, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  viewer.ID,
		Rating:  4,
		Title:   "Solid",
		Content: "A worthy read even on a second pass.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, other.HelpfulScore)
}

func TestServiceListReviews_ForBookAndUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createTestUser(ctx, t, db, "author")
	other := createTestUser(ctx, t, db, "other")
	book := createTestBook(ctx, t, db, "Dune", author.ID)
	secondBook := createTestBook(ctx, t, db, "Hyperion", author.ID)

	for _, opts := range []CreateReviewOptions{
		{BookID: book.ID, UserID: author.ID, Rating: 5, Title: "A", Content: "The spice must flow, and so must my praise."},
		{BookID: book.ID, UserID: other.ID, Rating: 3, Title: "B", Content: "Somewhere between fine and forgettable."},
		{BookID: secondBook.ID, UserID: author.ID, Rating: 4, Title: "C", Content: "The shrike haunts me to this day, honestly."},
	} {
		_, err := svc.CreateReview(ctx, opts)
		require.NoError(t, err)
	}

	byBook, total, err := svc.ListReviews(ctx, ListReviewsOptions{BookID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, byBook, 2)

	byUser, total, err := svc.ListReviews(ctx, ListReviewsOptions{UserID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, byUser, 2)
	// User listings include the book for display.
	assert.NotNil(t, byUser[0].Book)

	paged, total, err := svc.ListReviews(ctx, ListReviewsOptions{BookID: &book.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, paged, 1)
}

func TestServiceDeleteBookCascadesReviews(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createTestUser(ctx, t, db, "author")
	voter := createTestUser(ctx, t, db, "voter")
	book := createTestBook(ctx, t, db, "Dune", author.ID)

	review, err := svc.CreateReview(ctx, CreateReviewOptions{
		BookID:  book.ID,
		UserID:  author.ID,
		Rating:  5,
		Title:   "Masterpiece",
		Content: "The spice must flow, and so must my praise.",
	})
	require.NoError(t, err)

	_, _, err = svc.ToggleLike(ctx, review.ID, voter.ID)
	require.NoError(t, err)
	_, err = svc.VoteHelpful(ctx, review.ID, voter.ID, true)
	require.NoError(t, err)

	_, err = db.NewDelete().Model((*models.Book)(nil)).Where("id = ?", book.ID).Exec(ctx)
	require.NoError(t, err)

	for _, model := range []interface{}{
		(*models.Review)(nil),
		(*models.ReviewLike)(nil),
		(*models.HelpfulVote)(nil),
	} {
		count, err := db.NewSelect().Model(model).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	}
}
