package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shelftalk/shelftalk/pkg/errcodes"
	"github.com/shelftalk/shelftalk/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles book catalog operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new books service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateBookOptions contains options for creating a book.
type CreateBookOptions struct {
	Title       string
	Author      string
	ISBN        *string
	Description *string
	Genre       string
	AddedByID   int
}

// CreateBook creates a new catalog entry. A duplicate ISBN is rejected.
func (s *Service) CreateBook(ctx context.Context, opts CreateBookOptions) (*models.Book, error) {
	if opts.ISBN != nil && *opts.ISBN != "" {
		exists, err := s.db.NewSelect().
			Model((*models.Book)(nil)).
			Where("isbn = ?", *opts.ISBN).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			return nil, errcodes.Conflict("A book with this ISBN already exists")
		}
	}

	now := time.Now()
	book := &models.Book{
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       opts.Title,
		Author:      opts.Author,
		ISBN:        opts.ISBN,
		Description: opts.Description,
		Genre:       opts.Genre,
		AddedByID:   opts.AddedByID,
	}

	_, err := s.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.RetrieveBook(ctx, book.ID)
}

// RetrieveBook gets a book by ID.
func (s *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := s.db.NewSelect().
		Model(book).
		Relation("AddedBy").
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// ListBooksOptions contains options for listing books.
type ListBooksOptions struct {
	Limit    int
	Offset   int
	Genre    *string
	Author   *string
	Search   *string
	Featured *bool
	Sort     string
	Order    string
}

var sortColumns = map[string]string{
	"created_at":     "b.created_at",
	"title":          "b.title",
	"average_rating": "b.average_rating",
	"ratings_count":  "b.ratings_count",
}

// ListBooks returns a filtered, sorted page of books along with the total
// count of matches.
func (s *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	query := s.db.NewSelect().
		Model(&books).
		Relation("AddedBy")

	if opts.Genre != nil && *opts.Genre != "" {
		query = query.Where("b.genre = ?", *opts.Genre)
	}
	if opts.Author != nil && *opts.Author != "" {
		query = query.Where("b.author LIKE ? COLLATE NOCASE", "%"+*opts.Author+"%")
	}
	if opts.Search != nil && *opts.Search != "" {
		pattern := "%" + *opts.Search + "%"
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("b.title LIKE ? COLLATE NOCASE", pattern).
				WhereOr("b.author LIKE ? COLLATE NOCASE", pattern).
				WhereOr("b.description LIKE ? COLLATE NOCASE", pattern)
		})
	}
	if opts.Featured != nil {
		query = query.Where("b.featured = ?", *opts.Featured)
	}

	column, ok := sortColumns[opts.Sort]
	if !ok {
		column = "b.created_at"
	}
	direction := "DESC"
	if opts.Order == "asc" {
		direction = "ASC"
	}
	query = query.OrderExpr(column + " " + direction).Order("b.id ASC")

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

	return books, total, nil
}

// UpdateBookOptions contains options for updating a book.
type UpdateBookOptions struct {
	Columns []string
}

// UpdateBook persists the given columns of the book. Changing the ISBN to one
// held by another book is rejected.
func (s *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, column := range opts.Columns {
		if column != "isbn" || book.ISBN == nil || *book.ISBN == "" {
			continue
		}
		exists, err := s.db.NewSelect().
			Model((*models.Book)(nil)).
			Where("isbn = ?", *book.ISBN).
			Where("id != ?", book.ID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return errcodes.Conflict("A book with this ISBN already exists")
		}
	}

	book.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(book).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// DeleteBook removes a book. Its reviews (and their likes, votes, and edit
// history) are removed by foreign key cascade.
func (s *Service) DeleteBook(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
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

// RatingHistogram returns the count of reviews per rating value 1..5.
func (s *Service) RatingHistogram(ctx context.Context, bookID int) (map[int]int, error) {
	var rows []struct {
		Rating int `bun:"rating"`
		Count  int `bun:"count"`
	}

	err := s.db.NewSelect().
		Model((*models.Review)(nil)).
		ColumnExpr("rating").
		ColumnExpr("COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Group("rating").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	histogram := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		histogram[row.Rating] = row.Count
	}
	return histogram, nil
}
