package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/greentrace/auth"
	gterrors "github.com/jrsteele09/greentrace/internal/errors"
)

// prompter reads missing values from the command's input, one line per value
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

// valueOr returns v, or prompts for it when v is empty
func (p *prompter) valueOr(v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// reportFailure prints a failed result's field errors and returns it as an error
func reportFailure(w io.Writer, result auth.Result) error {
	for _, field := range slices.Sorted(maps.Keys(result.Errors)) {
		fmt.Fprintf(w, "  %s: %s\n", field, result.Errors[field])
	}
	return result.Err()
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			email, err := p.valueOr(email, "Email")
			if err != nil {
				return err
			}
			password, err := p.valueOr(password, "Password")
			if err != nil {
				return err
			}
			if errs := auth.ValidateLogin(email, password); len(errs) > 0 {
				return reportFailure(cmd.ErrOrStderr(), auth.Result{Errors: errs, Kind: auth.ValidationFailure, Message: auth.MsgFixFields})
			}

			manager, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			result := manager.Login(cmd.Context(), email, password)
			if !result.Success {
				return reportFailure(cmd.ErrOrStderr(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", result.User.DisplayName(), result.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var form auth.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			prompts := []struct {
				value *string
				label string
			}{
				{&form.FirstName, "First name"},
				{&form.LastName, "Last name"},
				{&form.Email, "Email"},
				{&form.Password, "Password"},
			}
			for _, prompt := range prompts {
				if *prompt.value, err = p.valueOr(*prompt.value, prompt.label); err != nil {
					return err
				}
			}
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			if errs := auth.ValidateSignup(form); len(errs) > 0 {
				return reportFailure(cmd.ErrOrStderr(), auth.Result{Errors: errs, Kind: auth.ValidationFailure, Message: auth.MsgFixFields})
			}

			manager, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			result := manager.Register(cmd.Context(), form.Request())
			if !result.Success {
				return reportFailure(cmd.ErrOrStderr(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome to GreenTrace, %s\n", result.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	cmd.Flags().BoolVar(&form.AcceptTerms, "accept-terms", false, "accept the terms of service and privacy policy")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			manager.Initialize(cmd.Context())
			result := manager.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user after verifying the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			manager.Initialize(cmd.Context())
			state := manager.State()
			if !state.IsAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return gterrors.ErrNoSession
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(state.User)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", state.User.DisplayName(), state.User.Email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the user as JSON")
	return cmd
}

func newForgotPasswordCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request password reset instructions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := newPrompter(cmd).valueOr(email, "Email")
			if err != nil {
				return err
			}
			if msg := auth.ValidateEmail(email); msg != "" {
				return reportFailure(cmd.ErrOrStderr(), auth.Result{
					Errors: map[string]string{auth.FieldEmail: msg}, Kind: auth.ValidationFailure, Message: auth.MsgFixFields,
				})
			}

			manager, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			result := manager.ForgotPassword(cmd.Context(), email)
			if !result.Success {
				return reportFailure(cmd.ErrOrStderr(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			if resetToken, ok := result.Data["resetToken"].(string); ok && resetToken != "" && a.cfg.IsDev() {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset token: %s\n", resetToken)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var resetToken, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password using a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			resetToken, err := p.valueOr(resetToken, "Reset token")
			if err != nil {
				return err
			}
			password, err := p.valueOr(password, "New password")
			if err != nil {
				return err
			}
			if msg := auth.ValidatePassword(password); msg != "" {
				return reportFailure(cmd.ErrOrStderr(), auth.Result{
					Errors: map[string]string{auth.FieldPassword: msg}, Kind: auth.ValidationFailure, Message: auth.MsgFixFields,
				})
			}

			manager, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			result := manager.ResetPassword(cmd.Context(), resetToken, password)
			if !result.Success {
				return reportFailure(cmd.ErrOrStderr(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&resetToken, "token", "t", "", "reset token")
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (prompted when omitted)")
	return cmd
}

func newPasswordStrengthCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "password-strength [password]",
		Short: "Score a password against the signup requirements",
		Args:  cobra.MaximumNArgs(1),
		// scoring is local; skip loading config
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			}
			password, err := newPrompter(cmd).valueOr(password, "Password")
			if err != nil {
				return err
			}

			strength := auth.PasswordStrength(password)
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(strength)
			}
			label := strength.Label
			if label == "" {
				label = "-"
			}
			fmt.Fprintf(out, "Strength: %s (%d/5)\n", label, strength.Score)
			for _, req := range strength.Requirements {
				mark := " "
				if req.Met {
					mark = "x"
				}
				fmt.Fprintf(out, "  [%s] %s\n", mark, req.Label)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the score as JSON")
	return cmd
}
