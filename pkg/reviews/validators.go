package reviews

// CreateReviewPayload represents the create review request body.
type CreateReviewPayload struct {
	Rating         int      `json:"rating" validate:"required,gte=1,lte=5"`
	Title          string   `json:"title" validate:"required,max=200" mod:"trim"`
	Content        string   `json:"content" validate:"required,min=10,max=10000"`
	Pros           []string `json:"pros" validate:"omitempty,max=10,dive,max=200"`
	Cons           []string `json:"cons" validate:"omitempty,max=10,dive,max=200"`
	RecommendedFor []string `json:"recommended_for" validate:"omitempty,max=10,dive,max=200"`
}

// UpdateReviewPayload represents the update review request body. Only the
// fields present are changed.
type UpdateReviewPayload struct {
	Rating         *int      `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Title          *string   `json:"title" validate:"omitempty,max=200" mod:"trim"`
	Content        *string   `json:"content" validate:"omitempty,min=10,max=10000"`
	Pros           *[]string `json:"pros" validate:"omitempty,max=10,dive,max=200"`
	Cons           *[]string `json:"cons" validate:"omitempty,max=10,dive,max=200"`
	RecommendedFor *[]string `json:"recommended_for" validate:"omitempty,max=10,dive,max=200"`
}

// HelpfulVotePayload represents the helpfulness vote request body.
type HelpfulVotePayload struct {
	IsHelpful *bool `json:"is_helpful" validate:"required"`
}

// ListReviewsQuery represents the review listing query parameters.
type ListReviewsQuery struct {
	Limit  int `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}
