package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/response"
	appValidator "github.com/charlesng35/resumex/pkg/validator"
)

// bindAndValidate decodes the JSON payload into dest, rejecting unknown fields,
// and runs struct validation rules. Numbers decode as json.Number so callers
// can tell a numeric literal from a quoted one. When decoding or validation
// fails, an error response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if c.Request == nil || c.Request.Body == nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest(formatDecodeError(err)))
		return false
	}
	if decoder.More() {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, apperrors.NewValidation(formatValidationError(err)))
		return false
	}

	return true
}

func formatDecodeError(err error) string {
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Sprintf("unknown field %s", field)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has an invalid type", prettifyFieldName(typeErr.Field))
	}
	return "invalid JSON payload"
}

func formatValidationError(err error) string {
	var fieldErrs appValidator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.Error()
	}
	return "invalid request payload"
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}
