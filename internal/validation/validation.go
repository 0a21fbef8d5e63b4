// Package validation runs struct-tag validation on mutation inputs and
// converts failures into apperror.ValidationErrors.
//
// Field paths use the json tag names the client sent, dotted for nested
// elements: "name", "labelIds.1". Messages come from a small table keyed by
// field and rule, falling back to a generic message per rule.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/event-logger/internal/apperror"
)

// Validator is safe for concurrent use; validator.Validate caches struct
// metadata internally, so one instance is shared process-wide.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Validator{v: v}
}

// Struct validates s. It returns nil, apperror.ValidationErrors, or (for a
// programming error such as passing a non-struct) a plain error.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation: %w", err)
	}

	out := make(apperror.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		out = append(out, apperror.ValidationFailed(path, message(path, fe)))
	}
	return out
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

var indexRe = regexp.MustCompile(`\[(\d+)\]`)

// fieldPath turns "CreateLoggableEventInput.labelIds[2]" into "labelIds.2".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexRe.ReplaceAllString(namespace, ".$1")
}

// messages overrides the generic text for specific fields. The last path
// segment is used, so "labelIds.3" looks up "labelIds.*".
var messages = map[string]map[string]string{
	"name": {
		"required": "Name cannot be empty",
		"min":      "Name cannot be empty",
		"max":      "Name must be under 25 characters",
	},
	"warningThresholdInDays": {
		"min": "Warning threshold must be a positive number",
	},
	"id": {
		"required": "ID is required",
		"min":      "ID is required",
	},
	"labelIds.*": {
		"required": "Label ID is required",
	},
}

func message(path string, fe validator.FieldError) string {
	key := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		key = path[:i] + ".*"
	}
	if byTag, ok := messages[key]; ok {
		if msg, ok := byTag[fe.Tag()]; ok {
			return msg
		}
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "min":
		return fmt.Sprintf("%s must be at least %s", path, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", path, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", path)
	}
}
