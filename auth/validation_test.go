package auth_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/greentrace/auth"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	require.Empty(t, auth.ValidateEmail("a@b.com"))
	require.Equal(t, auth.MsgInvalidEmail, auth.ValidateEmail("not-an-email"))
	require.Equal(t, auth.MsgRequired, auth.ValidateEmail("   "))
	require.Equal(t, auth.MsgInvalidEmail, auth.ValidateEmail("a b@c.com"))
	require.Equal(t, auth.MsgInvalidEmail, auth.ValidateEmail("a@b"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"meets all classes", "Aa1@aaaa", ""},
		{"missing classes", "aaaaaaaa", auth.MsgPasswordClasses},
		{"empty", "", auth.MsgRequired},
		{"too short", "Aa1@", auth.MsgPasswordTooShort},
		{"no special", "Aa1aaaaa", auth.MsgPasswordClasses},
		{"unsupported special only", "Aa1#aaaa", auth.MsgPasswordClasses},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, auth.ValidatePassword(tt.password))
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"valid", "Ada", ""},
		{"valid with space", "Mary Ann", ""},
		{"blank", "  ", auth.MsgRequired},
		{"too short", " A ", auth.MsgNameTooShort},
		{"too long", strings.Repeat("a", 51), auth.MsgNameTooLong},
		{"max length", strings.Repeat("a", 50), ""},
		{"digits", "Ada2", auth.MsgNameCharacters},
		{"hyphen", "Jean-Luc", auth.MsgNameCharacters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, auth.ValidateName(tt.value))
		})
	}
}

func TestValidateConfirmPassword(t *testing.T) {
	require.Equal(t, auth.MsgRequired, auth.ValidateConfirmPassword("", "Secret1!"))
	require.Equal(t, auth.MsgPasswordMismatch, auth.ValidateConfirmPassword("Secret1?", "Secret1!"))
	require.Empty(t, auth.ValidateConfirmPassword("Secret1!", "Secret1!"))
}

func TestValidateField(t *testing.T) {
	form := auth.SignupForm{Password: "Secret1!"}
	require.Equal(t, auth.MsgPasswordMismatch, auth.ValidateField(auth.FieldConfirmPassword, "other", form))
	require.Empty(t, auth.ValidateField(auth.FieldConfirmPassword, "Secret1!", form))
	require.Equal(t, auth.MsgNameTooShort, auth.ValidateField(auth.FieldLastName, "L", form))
	require.Empty(t, auth.ValidateField("nickname", "", form))
}

func TestValidateSignup(t *testing.T) {
	t.Run("valid form", func(t *testing.T) {
		errs := auth.ValidateSignup(auth.SignupForm{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Password: "Secret1!", ConfirmPassword: "Secret1!", AcceptTerms: true,
		})
		require.Empty(t, errs)
	})

	t.Run("empty form", func(t *testing.T) {
		errs := auth.ValidateSignup(auth.SignupForm{})
		require.Equal(t, map[string]string{
			auth.FieldFirstName:       auth.MsgRequired,
			auth.FieldLastName:        auth.MsgRequired,
			auth.FieldEmail:           auth.MsgRequired,
			auth.FieldPassword:        auth.MsgRequired,
			auth.FieldConfirmPassword: auth.MsgRequired,
			auth.FieldTerms:           auth.MsgTermsRequired,
		}, errs)
	})
}

func TestValidateLogin(t *testing.T) {
	require.Empty(t, auth.ValidateLogin("ada@example.com", "x"))

	errs := auth.ValidateLogin("ada", "")
	require.Equal(t, auth.MsgInvalidEmail, errs[auth.FieldEmail])
	require.Equal(t, auth.MsgRequired, errs[auth.FieldPassword])
}
