package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Follow is one edge of the social graph. Follower and followee lists are
// both read from this single relation, so the mirrored sets can't disagree.
type Follow struct {
	bun.BaseModel `bun:"table:follows,alias:fo"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	FollowerID int       `bun:",nullzero" json:"follower_id"`
	FolloweeID int       `bun:",nullzero" json:"followee_id"`
	Follower   *User     `bun:"rel:belongs-to,join:follower_id=id" json:"follower,omitempty"`
	Followee   *User     `bun:"rel:belongs-to,join:followee_id=id" json:"followee,omitempty"`
}

type WishlistBook struct {
	bun.BaseModel `bun:"table:wishlist_books,alias:wb"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	BookID    int       `bun:",nullzero" json:"book_id"`
	Book      *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}

type BookRead struct {
	bun.BaseModel `bun:"table:books_read,alias:br"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	UserID     int       `bun:",nullzero" json:"user_id"`
	BookID     int       `bun:",nullzero" json:"book_id"`
	FinishedAt time.Time `json:"finished_at"`
	Book       *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
