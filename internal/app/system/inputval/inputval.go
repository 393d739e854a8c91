// internal/app/system/inputval/inputval.go

// Package inputval validates decoded request bodies with waffle/pantry/validate
// and turns rule failures into per-field messages:
//
//	type contactInput struct {
//	    Name  string `json:"name" validate:"required,max=200" label:"Name"`
//	    Email string `json:"email" validate:"required,email" label:"Email"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Fields())
//	    return
//	}
package inputval

import (
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds the failures of one Validate call, in field order.
type Result struct {
	Errors []FieldError
}

// FieldError is one failed rule. Field is the json name when tagged.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the first message per field.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// domainRule is a site-specific validate tag and its message.
type domainRule struct {
	name    string
	check   func(any) bool
	message func(label string) string
}

var domainRules = []domainRule{
	{
		name: "lang",
		check: func(v any) bool {
			s, ok := v.(string)
			return ok && models.IsSupportedLang(strings.ToLower(strings.TrimSpace(s)))
		},
		message: func(label string) string {
			return label + " must be one of: " + strings.Join(models.SupportedLangCodes(), ", ") + "."
		},
	},
	{
		name: "rating",
		check: func(v any) bool {
			n, ok := asInt(v)
			return ok && n >= models.MinRating && n <= models.MaxRating
		},
		message: func(label string) string { return label + " must be between 1 and 5." },
	},
	{
		name: "localized",
		check: func(v any) bool {
			switch t := v.(type) {
			case models.LocalizedText:
				return t.HasEN()
			case *models.LocalizedText:
				return t != nil && t.HasEN()
			}
			return false
		},
		message: func(label string) string { return label + " needs English text." },
	},
}

var (
	validator     *validate.Validator
	validatorOnce sync.Once
)

func get() *validate.Validator {
	validatorOnce.Do(func() {
		validator = validate.New(validate.WithStopOnFirstError())
		for _, r := range domainRules {
			validator.RegisterRuleFunc(r.name, r.check, r.name)
		}
	})
	return validator
}

// Validate checks s against its `validate` tags. Besides the pantry/validate
// built-ins (required, email, oneof, min, max) it knows:
//   - lang: one of the site languages
//   - rating: integer star rating from 1 to 5
//   - localized: LocalizedText with English text present
func Validate(s any) *Result {
	res := &Result{}
	err := get().Struct(s)
	if err == nil {
		return res
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Field: "", Message: "Input is invalid."})
		return res
	}

	labels := fieldLabels(s)
	for _, e := range errs {
		label := labels[e.Field]
		if label == "" {
			label = e.Field
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   e.Field,
			Label:   label,
			Message: message(label, e.Rule, e.Param),
		})
	}
	return res
}

// fieldLabels maps each field's json name to its `label` tag.
func fieldLabels(s any) map[string]string {
	labels := map[string]string{}
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return labels
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			name = tag
		}
		if label := f.Tag.Get("label"); label != "" {
			labels[name] = label
		}
	}
	return labels
}

func message(label, rule, param string) string {
	for _, r := range domainRules {
		if r.name == rule {
			return r.message(label)
		}
	}
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	}
	return label + " is invalid."
}

func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
