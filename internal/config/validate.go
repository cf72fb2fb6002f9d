package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/econlab/regdata/pkg/utils"
)

// Validate checks the struct tags and the cross-field rules.
func (c *Config) Validate() error {
	v, err := newValidator()
	if err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, formatFieldError(fe))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	start, end, err := c.Macro.Window()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("invalid config: macro.window_end %s is before macro.window_start %s", c.Macro.WindowEnd, c.Macro.WindowStart)
	}
	return nil
}

// newValidator returns a validator with the "date" tag registered and
// errors reported under mapstructure key names, e.g. "macro.window_start".
func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("date", isDate); err != nil {
		return nil, fmt.Errorf("register date validation: %w", err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v, nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	case "date":
		return fmt.Sprintf("%s must be YYYY-MM-DD, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}

// isDate validates the YYYY-MM-DD format.
func isDate(fl validator.FieldLevel) bool {
	_, err := utils.ParseDate(fl.Field().String())
	return err == nil
}
