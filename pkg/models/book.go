package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `bun:",nullzero" json:"title"`
	Author      string    `bun:",nullzero" json:"author"`
	ISBN        *string   `json:"isbn,omitempty"`
	Description *string   `json:"description"`
	Genre       string    `bun:",nullzero" json:"genre"`
	Featured    bool      `json:"featured"`
	AddedByID   int       `bun:",nullzero" json:"added_by_id"`
	AddedBy     *User     `bun:"rel:belongs-to,join:added_by_id=id" json:"added_by,omitempty"`

	// Derived aggregates, recomputed in the same transaction as every review
	// mutation. AverageRating is rounded to one decimal; both are 0 when the
	// book has no reviews.
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int     `json:"ratings_count"`
}
