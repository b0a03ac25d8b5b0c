package identity

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the "nationalid" tag
// registered. Field names in errors follow the json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}

			return name
		})

		_ = v.RegisterValidation("nationalid", func(fl validator.FieldLevel) bool {
			return ticket.IsValidNationalID(fl.Field().String())
		})

		validate = v
	})

	return validate
}

// StructViolations validates s and returns each failed field under prefix.
// Errors that are not field errors are returned as is.
func StructViolations(prefix string, s any) ([]pawn.FieldViolation, error) {
	err := Validator().Struct(s)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	out := make([]pawn.FieldViolation, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}

		out = append(out, pawn.FieldViolation{
			Field:   field,
			Code:    codeForTag(fe.Tag()),
			Message: messageForTag(fe),
		})
	}

	return out, nil
}

func codeForTag(tag string) pawn.ErrorCode {
	switch tag {
	case "nationalid":
		return pawn.ErrorInvalidNationalID
	default:
		return pawn.ErrorMissingField
	}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "nationalid":
		return fe.Field() + " must be S, T, F or G followed by 7 digits and a letter"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
