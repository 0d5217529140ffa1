package validator

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// webEmailPattern is the address shape browsers accept for <input type="email">: a dotless
// domain such as "localhost" is valid.
var webEmailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

var (
	formTagsMu sync.RWMutex
	formTags   = map[string]string{}
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("webemail", func(fl validator.FieldLevel) bool {
		return webEmailPattern.MatchString(fl.Field().String())
	})
}

// Errors holds the rule failures of one validation run.
// Fields maps a field name to the tags it failed, Form lists form-level conditions.
type Errors struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields)+len(e.Form))
	for _, field := range e.FieldNames() {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], ","))
	}
	parts = append(parts, e.Form...)
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldNames returns failing field names in sorted order.
func (e *Errors) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether field failed rule tag.
func (e *Errors) Has(field, tag string) bool {
	if e == nil {
		return false
	}
	for _, t := range e.Fields[field] {
		if t == tag {
			return true
		}
	}
	return false
}

// HasForm reports whether the form-level condition is set.
func (e *Errors) HasForm(condition string) bool {
	if e == nil {
		return false
	}
	for _, c := range e.Form {
		if c == condition {
			return true
		}
	}
	return false
}

// Messages renders the first failure of each field and every form condition as text.
func (e *Errors) Messages() map[string]string {
	if e == nil {
		return nil
	}
	out := make(map[string]string, len(e.Fields)+len(e.Form))
	for field, tags := range e.Fields {
		if len(tags) > 0 {
			out[field] = Message(tags[0])
		}
	}
	for _, c := range e.Form {
		out[c] = Message(c)
	}
	return out
}

// RegisterFormRule registers a struct-level rule whose failures are reported under tag as
// form-level conditions instead of field errors. message is shown to users.
func RegisterFormRule(tag, message string, fn validator.StructLevelFunc, types ...interface{}) {
	formTagsMu.Lock()
	formTags[tag] = message
	formTagsMu.Unlock()
	validate.RegisterStructValidation(fn, types...)
}

func isFormTag(tag string) bool {
	formTagsMu.RLock()
	defer formTagsMu.RUnlock()
	_, ok := formTags[tag]
	return ok
}

// Validate validates a struct and returns its rule failures, or nil when valid
func Validate(s interface{}) *Errors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Errors{Form: []string{"invalid"}}
	}

	out := &Errors{Fields: make(map[string][]string)}
	for _, fe := range verrs {
		if isFormTag(fe.Tag()) {
			out.Form = append(out.Form, fe.Tag())
			continue
		}
		out.Fields[fe.Field()] = append(out.Fields[fe.Field()], withParam(fe.Tag(), fe.Param()))
	}
	return out
}

func withParam(tag, param string) string {
	if param == "" {
		return tag
	}
	return tag + "=" + param
}

// Message returns the user-facing text for a failed rule tag ("min=6" style tags carry their param).
func Message(tag string) string {
	name, param, _ := strings.Cut(tag, "=")
	switch name {
	case "required":
		return "This field is required"
	case "email", "webemail":
		return "Invalid email format"
	case "min":
		return "Value is too short (min: " + param + ")"
	case "max":
		return "Value is too long (max: " + param + ")"
	}

	formTagsMu.RLock()
	msg, ok := formTags[name]
	formTagsMu.RUnlock()
	if ok {
		return msg
	}
	return "Invalid value"
}
