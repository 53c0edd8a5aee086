package users

// UpdateProfilePayload represents the update profile request body. Only the
// fields present are changed.
type UpdateProfilePayload struct {
	DisplayName    *string   `json:"display_name" validate:"omitempty,max=100"`
	Bio            *string   `json:"bio" validate:"omitempty,max=1000"`
	FavoriteGenres *[]string `json:"favorite_genres" validate:"omitempty,max=12,dive,genre"`
}

// MarkReadPayload represents the mark-as-read request body.
type MarkReadPayload struct {
	FinishedAt *string `json:"finished_at" validate:"omitempty,datetime=2006-01-02"`
}

// PageQuery represents generic pagination query parameters.
type PageQuery struct {
	Limit  int `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Offset int `query:"offset" validate:"gte=0"`
}
