// Package validator wraps go-playground/validator with JSON field names and
// client-facing messages for the rules request DTOs use.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field, named by its JSON key.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// Message renders the failure for API clients.
func (f FieldError) Message() string {
	field := humanise(f.Field)
	switch f.Tag {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, f.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, f.Param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, f.Param)
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, f.Param)
	}
	if f.Param != "" {
		return fmt.Sprintf("%s failed validation: %s=%s", field, f.Tag, f.Param)
	}
	return fmt.Sprintf("%s failed validation: %s", field, f.Tag)
}

// ValidationErrors collects every failed rule of one struct.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "invalid request payload"
	}
	messages := make([]string, len(v))
	for i, f := range v {
		messages[i] = f.Message()
	}
	return strings.Join(messages, "; ")
}

// Validator validates request DTOs.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with JSON tag names and the notblank and maxbytes
// rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	for tag, fn := range map[string]validator.Func{"notblank": notBlank, "maxbytes": maxBytes} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return &Validator{validate: v}
}

// Struct validates s. Rule failures come back as ValidationErrors; anything
// else, such as a non-struct argument, is returned unchanged.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// Register adds a custom rule.
func (v *Validator) Register(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

var shared = sync.OnceValue(New)

// ValidateStruct validates s with the shared Validator.
func ValidateStruct(s any) error {
	return shared().Struct(s)
}

// RegisterValidation adds a custom rule to the shared Validator.
func RegisterValidation(tag string, fn validator.Func) error {
	return shared().Register(tag, fn)
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

// maxBytes bounds the encoded length of a string, unlike max which counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(field.String()) <= limit
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func humanise(field string) string {
	if field == "" {
		return "field"
	}
	return strings.ToLower(strings.ReplaceAll(field, "_", " "))
}
