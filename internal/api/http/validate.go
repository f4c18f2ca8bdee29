package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
	"github.com/mind-engage/mindengage-vlab/internal/rbac"
)

const roleTag = "role"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(grading.Range)
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			sl.ReportError(r.Max, "max", "Max", "gtefield", "min")
		}
	}, grading.Range{})
	_ = v.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return rbac.Default().ValidRole(fl.Field().String())
	})
	return v
}

// validateCriteria checks criteria sent over HTTP. The engine itself accepts
// anything; this only keeps obviously broken configurations out of storage.
func validateCriteria(c *grading.Criteria) error {
	if c == nil {
		return nil
	}
	if err := validate.Struct(c); err != nil {
		return describe("criteria", err)
	}
	if c.Rules != nil {
		for _, e := range c.Rules.ExpectedValues.Entries() {
			if strings.TrimSpace(e.Key) == "" {
				return errors.New("rules.expectedValues: empty field name")
			}
			if err := validate.Struct(e.Value); err != nil {
				return describe("rules.expectedValues."+e.Key, err)
			}
		}
	}
	if c.Rubric != nil {
		for _, e := range c.Rubric.Sections.Entries() {
			if err := validate.Struct(e.Value); err != nil {
				return describe("rubric.sections."+e.Key, err)
			}
		}
	}
	return nil
}

func describe(prefix string, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s.%s fails %s", prefix, fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
