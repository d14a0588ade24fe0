package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/gallery-client/internal/app"
	"github.com/dtroode/gallery-client/internal/form"
	"github.com/dtroode/gallery-client/internal/route"
)

func newLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Long: `Sign in and go to the page given by --redirect, or the gallery.

Examples:
  gallery login --email ann@example.com --password secret1
  gallery login --email ann@example.com --password secret1 --redirect /upload`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			redirect, _ := cmd.Flags().GetString("redirect")

			if err := openLoginPage(ctx, a, redirect); err != nil {
				return err
			}

			loc, err := a.Login(ctx, form.Login{Email: email, Password: password})
			if err != nil {
				return err
			}

			printSignedIn(cmd, a, loc)
			return nil
		}),
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().String("redirect", "", "page to open after signing in")
	return cmd
}

func newSignupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			confirm, _ := cmd.Flags().GetString("confirm-password")
			if confirm == "" {
				confirm = password
			}

			loc, err := a.Signup(ctx, form.Signup{Email: email, Password: password, ConfirmPassword: confirm})
			if err != nil {
				return err
			}

			printSignedIn(cmd, a, loc)
			return nil
		}),
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().String("confirm-password", "", "password confirmation (defaults to --password)")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			if err := a.Logout(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Backend logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(_ context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			printState(cmd, a)
			return nil
		}),
	}
}

func newResetPasswordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")

			msg, err := a.RequestPasswordReset(ctx, form.PasswordReset{Email: email})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}),
	}
	cmd.Flags().String("email", "", "account email")
	return cmd
}

func newUpdatePasswordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-password",
		Short: "Set a new password for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			password, _ := cmd.Flags().GetString("password")
			confirm, _ := cmd.Flags().GetString("confirm-password")
			if confirm == "" {
				confirm = password
			}

			msg, err := a.UpdatePassword(ctx, form.UpdatePassword{Password: password, ConfirmPassword: confirm})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}),
	}
	cmd.Flags().String("password", "", "new password")
	cmd.Flags().String("confirm-password", "", "password confirmation (defaults to --password)")
	return cmd
}

// openLoginPage puts the app on the login page the way a guard redirect would.
func openLoginPage(ctx context.Context, a *app.App, redirect string) error {
	target := route.Location{Path: route.PathLogin}
	if redirect != "" {
		to, err := route.Parse(redirect)
		if err != nil {
			return err
		}
		target = route.LoginRedirect(to)
	}
	_, _, err := a.Navigate(ctx, target.FullPath())
	return err
}

func printSignedIn(cmd *cobra.Command, a *app.App, loc route.Location) {
	_, r := a.Current()
	email := ""
	if u := a.Session().User(); u != nil {
		email = u.Email
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
	fmt.Fprintf(cmd.OutOrStdout(), "Now at %s (%s)\n", loc.FullPath(), r.Title)
}

func printState(cmd *cobra.Command, a *app.App) {
	state := a.Session().Snapshot()
	out := cmd.OutOrStdout()

	switch {
	case state.User != nil:
		fmt.Fprintf(out, "Signed in as %s\n", state.User.Email)
		fmt.Fprintf(out, "User ID: %s\n", state.User.UserID)
	case state.HasCredentials:
		fmt.Fprintln(out, "Credential present but not confirmed.")
	default:
		fmt.Fprintln(out, "Not signed in.")
		fmt.Fprintln(out, "Use 'gallery login' to authenticate.")
	}
}
