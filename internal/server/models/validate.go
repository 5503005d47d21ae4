package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures
// into a *common.ValidationError.
func validateStruct(s any) error {
	return toValidationError("", validate.Struct(s))
}

// validateVar checks a single value against tag, reporting it as field.
func validateVar(field string, value any, tag string) error {
	return toValidationError(field, validate.Var(value, tag))
}

func toValidationError(field string, err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &common.ValidationError{}
	for _, fe := range ves {
		name := field
		if name == "" {
			name = fe.Field()
		}
		out.Add(name, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// merge folds several validation results into one error.
func merge(errs ...error) error {
	out := &common.ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *common.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		out.Fields = append(out.Fields, ve.Fields...)
	}
	return out.OrNil()
}
