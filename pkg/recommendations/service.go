package recommendations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/uptrace/bun"
)

const (
	// minAverageRating is the lowest average a book may have and still be
	// recommended.
	minAverageRating = 4.0
	// minRatingsCount keeps thinly-reviewed books out of recommendations.
	minRatingsCount = 5
	// maxResults caps the size of a recommendation list.
	maxResults = 12
)

// Service computes per-user book recommendations.
type Service struct {
	db *bun.DB
}

// NewService creates a new recommendations service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RecommendBooks suggests well-rated books in the genres the user reads or
// favors. Books the user has already finished are never included. The list is
// ordered by average rating, then ratings count, best first.
func (s *Service) RecommendBooks(ctx context.Context, userID int) ([]*models.Book, error) {
	genres, err := s.candidateGenres(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(genres) == 0 {
		return []*models.Book{}, nil
	}

	books := []*models.Book{}
	err = s.db.NewSelect().
		Model(&books).
		Where("b.genre IN (?)", bun.In(genres)).
		Where("b.average_rating >= ?", minAverageRating).
		Where("b.ratings_count >= ?", minRatingsCount).
		Where("b.id NOT IN (SELECT book_id FROM books_read WHERE user_id = ?)", userID).
		Order("b.average_rating DESC").
		Order("b.ratings_count DESC").
		Order("b.id ASC").
		Limit(maxResults).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}

// candidateGenres is the union of the user's favorite genres and the genres
// of the books they have finished.
func (s *Service) candidateGenres(ctx context.Context, userID int) ([]string, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Column("favorite_genres").
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var readGenres []string
	err = s.db.NewSelect().
		Model((*models.BookRead)(nil)).
		ColumnExpr("DISTINCT b.genre").
		Join("JOIN books AS b ON b.id = br.book_id").
		Where("br.user_id = ?", userID).
		Scan(ctx, &readGenres)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	seen := map[string]bool{}
	genres := []string{}
	for _, genre := range append([]string(user.FavoriteGenres), readGenres...) {
		if genre == "" || seen[genre] {
			continue
		}
		seen[genre] = true
		genres = append(genres, genre)
	}

	return genres, nil
}
