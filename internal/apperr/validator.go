package apperr

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// AddFieldErrors records one reason per failing field of a validator error on e.
// It reports whether err carried validator field errors at all.
func (e *Error) AddFieldErrors(err error) bool {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return false
	}
	for _, fe := range ve {
		if _, seen := e.Fields[fe.Field()]; seen {
			continue
		}
		e.WithField(fe.Field(), reason(fe))
	}
	return true
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "hexcolor":
		return "Enter a valid hex color, like #3B82F6."
	case "uuid":
		return "Must be a valid UUID."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "eqfield":
		return "The two password fields didn't match."
	}
	return "This value is invalid."
}
