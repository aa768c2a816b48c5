package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator builds the shared validator. Later calls are no-ops.
func InitValidator() {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		registerCustomValidations(v)
		validate = v
		log.Debug().Msg("Validator initialized")
	})
}

func validatorInstance() *validator.Validate {
	InitValidator()
	return validate
}

const unknownFieldPrefix = "json: unknown field "

// DecodeJSON decodes a single JSON object from the request body into v.
// Unknown fields and trailing data are rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, constants.MaxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return NewBadRequestError("Request body must only contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var (
		tooLarge      *http.MaxBytesError
		syntaxErr     *json.SyntaxError
		typeErr       *json.UnmarshalTypeError
		invalidTarget *json.InvalidUnmarshalError
	)

	switch {
	case errors.As(err, &tooLarge):
		return NewBadRequestError(constants.MsgRequestBodyTooLarge)
	case errors.Is(err, io.EOF):
		return NewBadRequestError(constants.MsgEmptyRequestBody)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return NewBadRequestError(constants.MsgMalformedJSON)
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		field := strings.Trim(strings.TrimPrefix(err.Error(), unknownFieldPrefix), `"`)
		return NewValidationError(field, "Unknown field")
	case errors.As(err, &syntaxErr):
		return NewBadRequestError(fmt.Sprintf("Request body contains malformed JSON (at position %d)", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return NewValidationError(typeErr.Field, fmt.Sprintf("Must be a %s", typeErr.Type))
		}
		return NewBadRequestError(fmt.Sprintf("Request body contains incorrect JSON type (at position %d)", typeErr.Offset))
	case errors.As(err, &invalidTarget):
		return NewInternalServerError(err)
	default:
		return NewBadRequestError(fmt.Sprintf("Error decoding JSON: %s", err))
	}
}

// ValidateStruct runs the struct's validate tags. A single failing field
// becomes a field error; several become one error with per-field details.
func ValidateStruct(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewBadRequestError(err.Error())
	}
	if len(fieldErrs) == 1 {
		return NewValidationError(fieldErrs[0].Field(), getErrorMessage(fieldErrs[0]))
	}

	details := make(map[string]string, len(fieldErrs))
	for _, e := range fieldErrs {
		details[e.Field()] = getErrorMessage(e)
	}
	return NewValidationErrorWithDetails("Multiple validation errors", details)
}

// DecodeAndValidate decodes a JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	return ValidateStruct(v)
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if e.Type().Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long", e.Param())
		}
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "max":
		if e.Type().Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long", e.Param())
		}
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "eqfield":
		return fmt.Sprintf("Must match the %s field", e.Param())
	case "oneof":
		allowedValues := strings.Replace(e.Param(), " ", ", ", -1)
		return fmt.Sprintf("Must be one of: %s", allowedValues)
	case "alphanum":
		return "Must contain only alphanumeric characters"
	case "position":
		return "Must be one of: admin, manager, developer, designer, member"
	case "task_status":
		return "Must be one of: todo, in_progress, done"
	case "notblank":
		return "Must not be blank"
	default:
		return fmt.Sprintf("Failed validation on the '%s' tag", e.Tag())
	}
}

func registerCustomValidations(v *validator.Validate) {
	if err := v.RegisterValidation("position", validatePosition); err != nil {
		log.Error().Err(err).Msg("Failed to register position validation")
	}
	if err := v.RegisterValidation("task_status", validateTaskStatus); err != nil {
		log.Error().Err(err).Msg("Failed to register task_status validation")
	}
	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		log.Error().Err(err).Msg("Failed to register notblank validation")
	}
}

// validatePosition accepts the known user positions.
func validatePosition(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constants.PositionAdmin, constants.PositionManager, constants.PositionDeveloper,
		constants.PositionDesigner, constants.PositionMember:
		return true
	}
	return false
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constants.TaskStatusTodo, constants.TaskStatusInProgress, constants.TaskStatusDone:
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// NewValidationErrorWithDetails reports several invalid fields at once.
func NewValidationErrorWithDetails(message string, details map[string]string) *AppError {
	detailsMap := make(map[string]interface{})
	for k, v := range details {
		detailsMap[k] = v
	}

	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Details:    detailsMap,
	}
}

// IsValidEmail checks if a string is a valid email address
func IsValidEmail(email string) bool {
	return validatorInstance().Var(email, "email") == nil
}

// ValidatePassword enforces the minimum password length used by registration and reset.
func ValidatePassword(password string, minLength int) error {
	if len(password) < minLength {
		return NewValidationError("password", fmt.Sprintf("Password must be at least %d characters long", minLength))
	}
	return nil
}
