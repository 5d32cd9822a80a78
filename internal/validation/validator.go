package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"picfeed/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ruleErrors maps custom tags to the rule function whose message is reported.
var ruleErrors = map[string]func(string) error{
	"username":        ValidateUsername,
	"username_update": ValidateUsernameUpdate,
	"password":        ValidatePassword,
	"email_address":   ValidateEmail,
	"language":        ValidateLanguage,
	"caption":         ValidateCaption,
}

// GetValidator returns the shared validator with the custom tags registered.
// Field names in errors are taken from json tags.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		for tag, rule := range ruleErrors {
			rule := rule
			_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return rule(fl.Field().String()) == nil
			})
		}
	})
	return validate
}

// Struct validates s and returns a VALIDATION_ERROR AppError with one message per failing field.
func Struct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = messageFor(fe)
	}
	return models.NewFieldValidationError(fields)
}

func messageFor(fe validator.FieldError) string {
	if rule, ok := ruleErrors[fe.Tag()]; ok {
		if err := rule(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", fe.Param())
	case "numeric":
		return "This field must contain only digits."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	}
	return fmt.Sprintf("Invalid value (%s).", fe.Tag())
}

// FieldError builds a single-field VALIDATION_ERROR.
func FieldError(field string, err error) error {
	return models.NewFieldValidationError(map[string]string{field: err.Error()})
}
