package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`

	ID             int        `bun:",pk,nullzero" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	BookID         int        `bun:",nullzero" json:"book_id"`
	Book           *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	UserID         int        `bun:",nullzero" json:"user_id"`
	User           *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Rating         int        `bun:",nullzero" json:"rating"`
	Title          string     `bun:",nullzero" json:"title"`
	Content        string     `bun:",nullzero" json:"content"`
	Pros           StringList `bun:",type:text" json:"pros"`
	Cons           StringList `bun:",type:text" json:"cons"`
	RecommendedFor StringList `bun:",type:text" json:"recommended_for"`

	Edits []*ReviewEdit `bun:"rel:has-many,join:id=review_id" json:"edits,omitempty"`

	// Derived fields, populated by queries that select them.
	LikeCount    int `bun:",scanonly" json:"like_count"`
	HelpfulYes   int `bun:",scanonly" json:"-"`
	HelpfulTotal int `bun:",scanonly" json:"-"`

	// HelpfulScore is the percentage of helpful votes among all votes cast,
	// 0 when no votes exist.
	HelpfulScore float64 `bun:"-" json:"helpful_score"`

	// LikedByViewer is set when the request is authenticated.
	LikedByViewer bool `bun:",scanonly" json:"liked_by_viewer"`
}

// ComputeHelpfulScore derives HelpfulScore from the scanned vote counts.
func (r *Review) ComputeHelpfulScore() {
	if r.HelpfulTotal == 0 {
		r.HelpfulScore = 0
		return
	}
	r.HelpfulScore = float64(r.HelpfulYes) / float64(r.HelpfulTotal) * 100
}

// ReviewEdit is an append-only record of a review's previous content,
// written whenever the content changes.
type ReviewEdit struct {
	bun.BaseModel `bun:"table:review_edits,alias:re"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	ReviewID        int       `bun:",nullzero" json:"review_id"`
	EditedAt        time.Time `json:"edited_at"`
	PreviousContent string    `bun:",nullzero" json:"previous_content"`
}

type ReviewLike struct {
	bun.BaseModel `bun:"table:review_likes,alias:rl"`

	ID       int `bun:",pk,nullzero" json:"id"`
	ReviewID int `bun:",nullzero" json:"review_id"`
	UserID   int `bun:",nullzero" json:"user_id"`
}

// HelpfulVote records one user's helpfulness vote on a review. The
// (review_id, user_id) pair is unique; repeat votes overwrite in place.
type HelpfulVote struct {
	bun.BaseModel `bun:"table:helpful_votes,alias:hv"`

	ID        int  `bun:",pk,nullzero" json:"id"`
	ReviewID  int  `bun:",nullzero" json:"review_id"`
	UserID    int  `bun:",nullzero" json:"user_id"`
	IsHelpful bool `json:"is_helpful"`
}
