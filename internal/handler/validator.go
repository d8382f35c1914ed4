package handler

import (
    "errors"
    "regexp"
    "time"

    "github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Messages for the first failed validation rule.
const (
    msgInvalidFormat = "Invalid format"
    msgFieldRequired = "Field is required"
    msgTooLong       = "Field exceeds maximum length"
    msgTooShort      = "Field is below minimum length"
    msgTooLarge      = "Field exceeds maximum value"
    msgTooSmall      = "Field is below minimum value"
    msgUnknown       = "Unknown validation error"
)

// ValidationError reports the first rule a request violated.
type ValidationError struct {
    Field   string
    Message string
}

func (e *ValidationError) Error() string { return e.Message + ": " + e.Field }

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
    v *validator.Validate
}

// NewValidator builds the request validator with the custom "username"
// and "isodate" rules registered.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    _ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
        return usernameRe.MatchString(fl.Field().String())
    })
    _ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
        _, err := time.Parse(time.DateOnly, fl.Field().String())
        return err == nil
    })
    return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
    return parseValidationErrors(cv.v.Struct(i))
}

func parseValidationErrors(err error) error {
    if err == nil {
        return nil
    }
    var vErrors validator.ValidationErrors
    if !errors.As(err, &vErrors) || len(vErrors) == 0 {
        return err
    }
    ve := vErrors[0]
    var msg string
    switch ve.Tag() {
    case "required":
        msg = msgFieldRequired
    case "max":
        msg = msgTooLong
        if isNumeric(ve.Kind().String()) {
            msg = msgTooLarge
        }
    case "min":
        msg = msgTooShort
        if isNumeric(ve.Kind().String()) {
            msg = msgTooSmall
        }
    case "lt", "lte":
        msg = msgTooLarge
    case "gt", "gte":
        msg = msgTooSmall
    case "eqfield":
        msg = "Field must match " + ve.Param()
    case "email", "username", "isodate":
        msg = msgInvalidFormat
    default:
        msg = msgUnknown
    }
    return &ValidationError{Field: ve.Field(), Message: msg}
}

func isNumeric(kind string) bool {
    switch kind {
    case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
        return true
    }
    return false
}
