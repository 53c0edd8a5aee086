package binder

import (
	"github.com/go-playground/validator/v10"
	"github.com/shelftalk/shelftalk/pkg/models"
)

// genreValidator validates that the value is one of the fixed book genres.
func genreValidator(fl validator.FieldLevel) bool {
	return models.IsValidGenre(fl.Field().String())
}
