package lifecycle

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator. Field names in its errors
// are the json tag names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// CheckStruct runs the struct validator and converts the first failure
// into a ValidationError naming the offending field.
func CheckStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: describe(fe)}
	}
	return &ValidationError{Field: "body", Message: err.Error()}
}

// ValidateSubmission checks a new complaint against the creation-time rules,
// including that its category exists in categories and is active.
func ValidateSubmission(in models.ComplaintSubmission, categories []models.Category) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ReporterName = strings.TrimSpace(in.ReporterName)
	in.ReporterContact = strings.TrimSpace(in.ReporterContact)
	if err := CheckStruct(in); err != nil {
		return err
	}

	for _, cat := range categories {
		if cat.ID != in.CategoryID {
			continue
		}
		if !cat.IsActive {
			return &ValidationError{Field: "category_id", Message: "category " + cat.Name + " is no longer accepting reports"}
		}
		return nil
	}
	return &ValidationError{Field: "category_id", Message: "unknown category " + strconv.FormatInt(in.CategoryID, 10)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
