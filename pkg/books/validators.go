package books

// ListBooksQuery represents the book listing query parameters.
type ListBooksQuery struct {
	Limit    int     `query:"limit" default:"20" validate:"gte=1,lte=100"`
	Offset   int     `query:"offset" validate:"gte=0"`
	Genre    *string `query:"genre" validate:"omitempty,genre"`
	Author   *string `query:"author" validate:"omitempty,max=200"`
	Search   *string `query:"search" validate:"omitempty,max=200"`
	Featured *bool   `query:"featured"`
	Sort     string  `query:"sort" default:"created_at" validate:"oneof=created_at title average_rating ratings_count"`
	Order    string  `query:"order" default:"desc" validate:"oneof=asc desc"`
}

// RetrieveBookQuery represents the query parameters for a book detail page.
type RetrieveBookQuery struct {
	ReviewsLimit  int `query:"reviews_limit" default:"10" validate:"gte=1,lte=50"`
	ReviewsOffset int `query:"reviews_offset" validate:"gte=0"`
}

// CreateBookPayload represents the create book request body.
type CreateBookPayload struct {
	Title       string  `json:"title" validate:"required,max=500" mod:"trim"`
	Author      string  `json:"author" validate:"required,max=200" mod:"trim"`
	ISBN        *string `json:"isbn" validate:"omitempty,isbn" mod:"trim"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Genre       string  `json:"genre" validate:"required,genre"`
}

// UpdateBookPayload represents the update book request body. Only the fields
// present are changed.
type UpdateBookPayload struct {
	Title       *string `json:"title" validate:"omitempty,max=500" mod:"trim"`
	Author      *string `json:"author" validate:"omitempty,max=200" mod:"trim"`
	ISBN        *string `json:"isbn" validate:"omitempty,isbn" mod:"trim"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Genre       *string `json:"genre" validate:"omitempty,genre"`
	Featured    *bool   `json:"featured"`
}
