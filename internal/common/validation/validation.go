package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
)

const (
	// Максимальные длины для различных полей
	MaxTitleLength       = 255
	MaxDescriptionLength = 4000

	// Минимальные длины
	MinTitleLength       = 1
	MinDescriptionLength = 1
)

// Validator is a wrapper around the validator library.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct based on its tags. The first failing
// field is reported as an AppError validation error.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), describe(fe))
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "validation failed")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "url", "http_url":
		return "must be an absolute URL"
	}
	return fmt.Sprintf("failed on %q", fe.Tag())
}

// ValidateTitle проверяет заголовок
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < MinTitleLength {
		return apperrors.NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperrors.NewValidationError("title", fmt.Sprintf("cannot exceed %d characters", MaxTitleLength))
	}
	return nil
}

// ValidateDescription проверяет описание
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return apperrors.NewValidationError("description", "must not be empty")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return apperrors.NewValidationError("description", fmt.Sprintf("cannot exceed %d characters", MaxDescriptionLength))
	}
	return nil
}
