// Package validate configures go-playground/validator the same way for gin's
// request binding and for services that check their own input.
package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var std = New()

// New returns a validator reading the "binding" struct tag, like gin's engine.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

// Register reports field errors under their JSON names and adds the notblank rule.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}
}

// Struct checks s against its binding tags.
func Struct(s interface{}) error {
	return std.Struct(s)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
