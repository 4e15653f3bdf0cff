package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"salesmonitor/backend/internal/domain"
)

var requestValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("store_level", func(fl validator.FieldLevel) bool {
		return domain.StoreLevel(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("product_type", func(fl validator.FieldLevel) bool {
		return domain.ProductType(fl.Field().String()).Valid()
	})
	return v
}

// validate runs the struct tags on req and folds any failures into a single
// ErrValidation carrying the offending fields.
func validate(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "store_level":
		return fmt.Sprintf("%s: unknown store level %q", field, fe.Value())
	case "product_type":
		return fmt.Sprintf("%s: unknown product type %q", field, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s long", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
