package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/greentrace/apiclient"
)

// Form field names
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldTerms           = "terms"
)

const (
	nameMinLength     = 2
	nameMaxLength     = 50
	passwordMinLength = 8
	passwordSpecials  = "@$!%*?&"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// SignupForm holds the raw values of the registration form
type SignupForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// Request converts the form into the signup payload, trimming the names
func (f SignupForm) Request() apiclient.SignupRequest {
	return apiclient.SignupRequest{
		FirstName:       strings.TrimSpace(f.FirstName),
		LastName:        strings.TrimSpace(f.LastName),
		Email:           f.Email,
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
	}
}

// Value returns the raw value of the named field
func (f SignupForm) Value(field string) string {
	switch field {
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldEmail:
		return f.Email
	case FieldPassword:
		return f.Password
	case FieldConfirmPassword:
		return f.ConfirmPassword
	default:
		return ""
	}
}

// ValidateName checks a first or last name. An empty string means valid.
func ValidateName(value string) string {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return MsgRequired
	case utf8.RuneCountInString(trimmed) < nameMinLength:
		return MsgNameTooShort
	case utf8.RuneCountInString(trimmed) > nameMaxLength:
		return MsgNameTooLong
	case !namePattern.MatchString(value):
		return MsgNameCharacters
	}
	return ""
}

func ValidateEmail(value string) string {
	if strings.TrimSpace(value) == "" {
		return MsgRequired
	}
	if !emailPattern.MatchString(value) {
		return MsgInvalidEmail
	}
	return ""
}

// ValidatePassword requires the minimum length and all four character classes
func ValidatePassword(value string) string {
	if value == "" {
		return MsgRequired
	}
	if len(value) < passwordMinLength {
		return MsgPasswordTooShort
	}
	if !hasUpper(value) || !hasLower(value) || !hasDigit(value) || !hasSpecial(value) {
		return MsgPasswordClasses
	}
	return ""
}

func ValidateConfirmPassword(confirm, password string) string {
	if confirm == "" {
		return MsgRequired
	}
	if confirm != password {
		return MsgPasswordMismatch
	}
	return ""
}

// ValidateField validates one field of the signup form. Unknown fields are always valid.
func ValidateField(field, value string, form SignupForm) string {
	switch field {
	case FieldFirstName, FieldLastName:
		return ValidateName(value)
	case FieldEmail:
		return ValidateEmail(value)
	case FieldPassword:
		return ValidatePassword(value)
	case FieldConfirmPassword:
		return ValidateConfirmPassword(value, form.Password)
	default:
		return ""
	}
}

// ValidateSignup returns the failing fields of form mapped to their messages
func ValidateSignup(form SignupForm) map[string]string {
	errs := make(map[string]string)
	for _, field := range []string{FieldFirstName, FieldLastName, FieldEmail, FieldPassword, FieldConfirmPassword} {
		if msg := ValidateField(field, form.Value(field), form); msg != "" {
			errs[field] = msg
		}
	}
	if !form.AcceptTerms {
		errs[FieldTerms] = MsgTermsRequired
	}
	return errs
}

// ValidateLogin only checks presence and email shape; the API judges the password
func ValidateLogin(email, password string) map[string]string {
	errs := make(map[string]string)
	if msg := ValidateEmail(email); msg != "" {
		errs[FieldEmail] = msg
	}
	if password == "" {
		errs[FieldPassword] = MsgRequired
	}
	return errs
}

// requireFields reports the empty values among fields, trimming before the check
func requireFields(fields map[string]string) map[string]string {
	errs := make(map[string]string)
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			errs[name] = MsgRequired
		}
	}
	return errs
}
