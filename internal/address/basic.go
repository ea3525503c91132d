package address

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatError lists fields that fail basic format checks.
type FormatError struct {
	Fields map[string]string
}

func (e *FormatError) Error() string {
	names := slices.Sorted(maps.Keys(e.Fields))
	return fmt.Sprintf("address: invalid format for %s", strings.Join(names, ", "))
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *FormatError) ErrorCode() string { return codeInvalid }

// ErrorMessage returns the user-facing message.
func (e *FormatError) ErrorMessage() string { return "Address is incomplete or malformed" }

// formatView is what the USPS needs to look an address up: a street line and
// either a city and state or a ZIP code.
type formatView struct {
	Address1 string `json:"address1" validate:"required"`
	City     string `json:"city" validate:"required_without=Zip5"`
	State    string `json:"state" validate:"required_without=Zip5,omitempty,len=2,alpha"`
	Zip5     string `json:"zip5" validate:"required_without_all=City State,omitempty,len=5,numeric"`
	Zip4     string `json:"zip4" validate:"omitempty,len=4,numeric"`
}

var formatValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

// CheckFormat performs basic validation without calling the USPS, so that
// obviously incomplete addresses are rejected before spending an API call.
func CheckFormat(a *Address) error {
	view := formatView{
		Address1: strings.TrimSpace(deref(a.Address1)),
		City:     strings.TrimSpace(deref(a.City)),
		State:    strings.TrimSpace(deref(a.State)),
		Zip5:     strings.TrimSpace(deref(a.Zip5)),
		Zip4:     strings.TrimSpace(deref(a.Zip4)),
	}

	err := formatValidator.Struct(view)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := &FormatError{Fields: make(map[string]string, len(verrs))}
	for _, v := range verrs {
		fe.Fields[v.Field()] = formatMessage(v)
	}
	return fe
}

func formatMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without", "required_without_all":
		return "is required unless a ZIP code or city and state are given"
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "alpha":
		return "must contain only letters"
	}
	return "is invalid"
}
