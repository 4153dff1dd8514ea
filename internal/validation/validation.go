// Package validation holds the input checks for registration and review forms.
package validation

import (
	"errors"       // errors.As for validator errors
	"fmt"          // Message formatting
	"reflect"      // Field kinds
	"strings"      // Field name casing
	"unicode/utf8" // Username length in characters

	"book_catalog/internal/domain" // Field limits

	"github.com/go-playground/validator/v10" // Binding errors from gin
)

// Registration error messages
const (
	MsgUsernameEmpty    = "please enter a valid username"
	MsgUsernameTooLong  = "username should not exceed 30 characters"
	MsgUserExists       = "user already exists!"
	MsgPasswordEmpty    = "please enter password"
	MsgPasswordMismatch = "password doesn't match"
)

// Field names used as keys in Errors
const (
	FieldUsername = "username"
	FieldPassword = "password"
)

// Errors collects messages per form field
type Errors map[string][]string

// Add appends a message for field
func (e Errors) Add(field string, msgs ...string) {
	if len(msgs) == 0 {
		return
	}
	e[field] = append(e[field], msgs...)
}

// Any reports whether at least one message was collected
func (e Errors) Any() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// Username checks a username's shape; availability is checked against the store
func Username(username string) []string {
	var errs []string
	if username == "" {
		errs = append(errs, MsgUsernameEmpty)
	}
	if utf8.RuneCountInString(username) > domain.MaxUsernameLength {
		errs = append(errs, MsgUsernameTooLong)
	}
	return errs
}

// Password checks that a password is present and matches its confirmation
func Password(password, confirm string) []string {
	var errs []string
	if password == "" || confirm == "" {
		errs = append(errs, MsgPasswordEmpty)
	}
	if password != confirm {
		errs = append(errs, MsgPasswordMismatch)
	}
	return errs
}

// Registration runs every shape check and returns the errors keyed by field
func Registration(username, password, confirm string) Errors {
	errs := Errors{}
	errs.Add(FieldUsername, Username(username)...)
	errs.Add(FieldPassword, Password(password, confirm)...)
	return errs
}

// BindingMessages turns gin binding errors into one readable message per field
func BindingMessages(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"invalid form submission"}
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
