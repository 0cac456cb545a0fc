package llm

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance used across the package.
var validate = validator.New()

// Validate checks the given struct against its validation tags. A nil
// return means the value conforms to its declared output shape.
func Validate(s any) error {
	return validate.Struct(s)
}

// RegisterCustomValidation registers a custom validation function
// under the given tag.
func RegisterCustomValidation(tag string, fn validator.Func) error {
	return validate.RegisterValidation(tag, fn)
}
