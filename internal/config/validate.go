package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks ranged and enumerated values. It runs after flags are
// applied so overrides are checked too.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// describe renders a field error as "[section] key ...".
func describe(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	// Namespace is Config.section.key.
	field := fe.Field()
	section := ""
	if len(parts) >= 3 {
		section = parts[1]
	}
	where := field
	if section != "" {
		where = fmt.Sprintf("[%s] %s", section, field)
	}

	switch fe.Tag() {
	case "required":
		return where + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s, got %q", where, strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", where, fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", where, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s), got %v", where, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", where, fe.Tag())
	}
}
