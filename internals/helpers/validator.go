package helper

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	dialCodeRe = regexp.MustCompile(`^\+?\d{1,3}$`)
)

// Validator returns the shared instance with the custom rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// report json names instead of Go field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// country_code is a baked-in alias for ISO 3166 codes, so dial codes get their own tag
		if err := v.RegisterValidation("dial_code", func(fl validator.FieldLevel) bool {
			return dialCodeRe.MatchString(strings.TrimSpace(fl.Field().String()))
		}); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// ValidateStruct returns nil or a Validation AppError with per-field messages.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ErrValidationFields("validation failed", ValidationFields(ve))
	}
	return ErrValidation(err.Error())
}

func ValidationFields(ve validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		field := fe.Namespace()
		// drop the root struct name: "MarkAttendanceRequest.attendances[0].status" -> "attendances[0].status"
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out[field] = append(out[field], fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email"
	case "numeric":
		return "must contain only digits"
	case "dial_code":
		return "must look like +91"
	case "datetime":
		return "must be a date in format " + fe.Param()
	case "dive":
		return "is invalid"
	default:
		return "failed on " + fe.Tag()
	}
}
