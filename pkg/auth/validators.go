package auth

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Username       string   `json:"username" validate:"required,min=3,max=50" mod:"trim"`
	Email          string   `json:"email" validate:"required,email" mod:"trim,lcase"`
	Password       string   `json:"password" validate:"required,min=8"`
	DisplayName    *string  `json:"display_name" validate:"omitempty,max=100"`
	FavoriteGenres []string `json:"favorite_genres" validate:"omitempty,max=12,dive,genre"`
}

// LoginPayload represents the login request body.
type LoginPayload struct {
	Username string `json:"username" validate:"required,min=3,max=50" mod:"trim"`
	Password string `json:"password" validate:"required,min=8"`
}
