package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

var validate = validator.New()

func init() {
	// Report JSON field names so messages match what the client sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Message renders the first failure the way the API reports it.
func Message(errs []*ErrorResponse) string {
	if len(errs) == 0 {
		return ""
	}
	first := errs[0]
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}

// ValidateVar checks a single value against tag, reporting it under field.
func ValidateVar(field string, value interface{}, tag string) *ErrorResponse {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ErrorResponse{FailedField: field, Tag: "invalid", Value: err.Error()}
	}
	return &ErrorResponse{FailedField: field, Tag: verrs[0].Tag(), Value: verrs[0].Param()}
}
