package recommendations

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestUser(ctx context.Context, t *testing.T, db *bun.DB, username string, favoriteGenres ...string) *models.User {
	t.Helper()

	user := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   "x",
		Role:           models.RoleMember,
		FavoriteGenres: models.StringList(favoriteGenres),
		IsActive:       true,
	}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return user
}

func createRatedBook(ctx context.Context, t *testing.T, db *bun.DB, title, genre string, averageRating float64, ratingsCount, addedByID int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:         title,
		Author:        "Test Author",
		Genre:         genre,
		AddedByID:     addedByID,
		AverageRating: averageRating,
		RatingsCount:  ratingsCount,
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	return book
}

func markRead(ctx context.Context, t *testing.T, db *bun.DB, userID, bookID int) {
	t.Helper()

	entry := &models.BookRead{UserID: userID, BookID: bookID, FinishedAt: time.Now()}
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	require.NoError(t, err)
}

func TestServiceRecommendBooks_FiltersAndOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice", "fantasy")

	greatFantasy := createRatedBook(ctx, t, db, "The Name of the Wind", "fantasy", 4.6, 40, alice.ID)
	goodFantasy := createRatedBook(ctx, t, db, "The Hobbit", "fantasy", 4.6, 25, alice.ID)
	// Below one threshold or the other.
	createRatedBook(ctx, t, db, "Mediocre Fantasy", "fantasy", 3.9, 50, alice.ID)
	createRatedBook(ctx, t, db, "Obscure Fantasy", "fantasy", 5.0, 4, alice.ID)
	// Wrong genre.
	createRatedBook(ctx, t, db, "Great Thriller", "thriller", 4.9, 90, alice.ID)

	books, err := svc.RecommendBooks(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, books, 2)
	// Equal averages break the tie on ratings count.
	assert.Equal(t, greatFantasy.ID, books[0].ID)
	assert.Equal(t, goodFantasy.ID, books[1].ID)
}

func TestServiceRecommendBooks_NeverIncludesReadBooks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice", "fantasy")

	read := createRatedBook(ctx, t, db, "The Hobbit", "fantasy", 4.8, 60, alice.ID)
	unread := createRatedBook(ctx, t, db, "The Name of the Wind", "fantasy", 4.5, 30, alice.ID)
	markRead(ctx, t, db, alice.ID, read.ID)

	books, err := svc.RecommendBooks(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, unread.ID, books[0].ID)
}

func TestServiceRecommendBooks_UsesReadGenres(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	// No favorite genres; the candidate set comes from reading history.
	alice := createTestUser(ctx, t, db, "alice")

	readScifi := createRatedBook(ctx, t, db, "Dune", "science-fiction", 4.7, 80, alice.ID)
	markRead(ctx, t, db, alice.ID, readScifi.ID)
	unreadScifi := createRatedBook(ctx, t, db, "Hyperion", "science-fiction", 4.4, 35, alice.ID)
	createRatedBook(ctx, t, db, "Great Romance", "romance", 4.9, 70, alice.ID)

	books, err := svc.RecommendBooks(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, unreadScifi.ID, books[0].ID)
}

func TestServiceRecommendBooks_NoSignalMeansNoResults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice")
	createRatedBook(ctx, t, db, "Great Thriller", "thriller", 4.9, 90, alice.ID)

	books, err := svc.RecommendBooks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestServiceRecommendBooks_CapsResults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice", "fantasy")

	for i := 0; i < maxResults+3; i++ {
		createRatedBook(ctx, t, db, "Fantasy Vol. "+string(rune('A'+i)), "fantasy", 4.5, 20+i, alice.ID)
	}

	books, err := svc.RecommendBooks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, books, maxResults)
}
