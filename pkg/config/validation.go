package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml key names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Validate checks f's static constraints. Channel entries are not checked
// here: unknown or misconfigured channels are handled when the hub builds
// them.
func Validate(f *File) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.ErrConfigValidation, "configuration validation failed").WithDetails(err.Error())
	}

	fields := make([]ValidationError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		ve := ValidationError{Field: fieldPath(e), Tag: e.Tag(), Message: formatValidationMessage(e)}
		fields = append(fields, ve)
		messages = append(messages, ve.Message)
	}
	return errors.New(errors.ErrConfigValidation, "configuration validation failed").
		WithDetails(strings.Join(messages, "; ")).
		WithContext("fields", fields)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationMessage(e validator.FieldError) string {
	field := fieldPath(e)
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a host:port address", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}

// Warnings lists suspicious but accepted settings.
func (f *File) Warnings(known func(tag string) bool) []string {
	var out []string
	if len(f.Channels) == 0 {
		out = append(out, "no channels configured")
	}
	for i, d := range f.Channels {
		tag := channel.NormalizeType(d.Type)
		switch {
		case tag == "":
			out = append(out, fmt.Sprintf("channels[%d] has no type", i))
		case known != nil && !known(tag):
			out = append(out, fmt.Sprintf("channels[%d] has unknown type %q", i, d.Type))
		}
	}
	if f.StrictMode && len(f.Specific) == 0 {
		out = append(out, "strict_mode is enabled but specific is empty; all fields pass through")
	}
	return out
}
