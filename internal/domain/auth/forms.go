package auth

import (
	playground "github.com/go-playground/validator/v10"

	"github.com/mwork/authweb/internal/pkg/validator"
)

// ConditionPasswordMismatch is the form-level condition raised when password and
// confirmation are both filled in and differ.
const ConditionPasswordMismatch = "passwordMismatch"

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,webemail"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegistrationInput is the registration form. Roles may be empty.
type RegistrationInput struct {
	Email           string   `json:"email" validate:"required,webemail"`
	Password        string   `json:"password" validate:"required,min=6"`
	ConfirmPassword string   `json:"confirmPassword" validate:"required"`
	FullName        string   `json:"fullName" validate:"required"`
	Roles           []string `json:"roles"`
}

func init() {
	validator.RegisterFormRule(ConditionPasswordMismatch, "Passwords do not match", passwordMatchRule, RegistrationInput{})
}

// PasswordsMatch reports whether a password pair passes the match rule. An empty side never
// mismatches; emptiness is the required rule's concern.
func PasswordsMatch(password, confirm string) bool {
	return password == "" || confirm == "" || password == confirm
}

func passwordMatchRule(sl playground.StructLevel) {
	in, ok := sl.Current().Interface().(RegistrationInput)
	if !ok {
		return
	}
	if !PasswordsMatch(in.Password, in.ConfirmPassword) {
		sl.ReportError(in.ConfirmPassword, "confirmPassword", "ConfirmPassword", ConditionPasswordMismatch, "")
	}
}

// Validate runs the login field rules. Nil means the form may be submitted.
func (c Credentials) Validate() *validator.Errors {
	return validator.Validate(c)
}

// Validate runs the registration field rules and the password match rule.
func (in RegistrationInput) Validate() *validator.Errors {
	return validator.Validate(in)
}

// roleSet collapses duplicate and blank identifiers, keeping first-seen order. The result is
// never nil so an empty selection is sent as an empty list.
func roleSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
