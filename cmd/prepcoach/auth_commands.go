package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prepcoach/internal/credentials"
	"prepcoach/internal/services/backend"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in, and manage the stored credential",
	}
	authCmd.AddCommand(newSignUpCommand(ctx))
	authCmd.AddCommand(newSignInCommand(ctx))
	authCmd.AddCommand(newSignOutCommand(ctx))
	authCmd.AddCommand(newAuthStatusCommand(ctx))
	return authCmd
}

func passwordFrom(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env, ok := os.LookupEnv("PREPCOACH_PASSWORD"); ok && env != "" {
		return env, nil
	}
	return readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
}

func newSignUpCommand(ctx *commandContext) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			secret, err := passwordFrom(cmd, password)
			if err != nil {
				return err
			}
			token, err := client.SignUp(cmd.Context(), backend.SignUpRequest{
				FullName: name,
				Email:    email,
				Password: secret,
			})
			if err != nil {
				return fmt.Errorf("sign up: %w", err)
			}
			out := cmd.OutOrStdout()
			if token == "" {
				fmt.Fprintf(out, "Account created for %s. Sign in with `prepcoach auth signin --email %s`.\n", strings.TrimSpace(email), strings.TrimSpace(email))
				return nil
			}
			creds, _ := ctx.credentials()
			if err := creds.SignIn(token, email, name); err != nil {
				return fmt.Errorf("save credential: %w", err)
			}
			fmt.Fprintf(out, "Account created. Signed in as %s\n", strings.TrimSpace(email))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted; PREPCOACH_PASSWORD is also read)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignInCommand(ctx *commandContext) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			secret, err := passwordFrom(cmd, password)
			if err != nil {
				return err
			}
			token, err := client.SignIn(cmd.Context(), backend.SignInRequest{Email: email, Password: secret})
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			creds, _ := ctx.credentials()
			if err := creds.SignIn(token, email, ""); err != nil {
				return fmt.Errorf("save credential: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s\n", strings.TrimSpace(email))
			if creds.Source() == credentials.SourceOverride {
				fmt.Fprintln(out, "Note: PREPCOACH_TOKEN (or api.token) is set and takes precedence over the stored credential.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted; PREPCOACH_PASSWORD is also read)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignOutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Remove the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := ctx.credentials()
			if err != nil {
				return err
			}
			if err := creds.SignOut(); err != nil {
				return fmt.Errorf("sign out: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Signed out")
			if creds.Source() == credentials.SourceOverride {
				fmt.Fprintln(out, "PREPCOACH_TOKEN (or api.token) is still set; unset it to stop authenticating.")
			}
			return nil
		},
	}
}

type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	Source        string `json:"source"`
	Email         string `json:"email,omitempty"`
	SavedAt       string `json:"saved_at,omitempty"`
	Backend       string `json:"backend"`
}

func newAuthStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether requests will be authenticated",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := ctx.credentials()
			if err != nil {
				return err
			}
			state := creds.State()
			status := authStatus{
				Authenticated: creds.Authenticated(),
				Source:        string(creds.Source()),
				Email:         state.Email,
				Backend:       ctx.configValue().API.BaseURL,
			}
			if !state.SavedAt.IsZero() {
				status.SavedAt = state.SavedAt.Local().Format("2006-01-02 15:04")
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			if !status.Authenticated {
				fmt.Fprintln(out, "Not signed in")
				fmt.Fprintf(out, "Backend: %s\n", status.Backend)
				return nil
			}
			fmt.Fprintf(out, "Signed in (%s)\n", status.Source)
			if status.Email != "" {
				fmt.Fprintf(out, "Email:   %s\n", status.Email)
			}
			if status.SavedAt != "" {
				fmt.Fprintf(out, "Since:   %s\n", status.SavedAt)
			}
			fmt.Fprintf(out, "Backend: %s\n", status.Backend)
			return nil
		},
	}
}
