// Package cli is the gallery command line: one process per command, sharing
// the persisted credential, or a long-lived shell.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dtroode/gallery-client/internal/app"
	"github.com/dtroode/gallery-client/internal/config"
	"github.com/dtroode/gallery-client/internal/logger"
)

type runFunc func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error

// NewRootCommand builds the gallery command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gallery",
		Short: "Sign in to the web gallery and browse it from the terminal",
		Long: `gallery talks to the gallery backend with cookie credentials stored in
CREDENTIALS_FILE, so a session started by one command is picked up by the next.

Examples:
  gallery signup --email ann@example.com --password secret1
  gallery open /images/42
  gallery whoami
  gallery logout`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newLoginCommand(),
		newSignupCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newResetPasswordCommand(),
		newUpdatePasswordCommand(),
		newOpenCommand(),
		newImagesCommand(),
		newDeleteImageCommand(),
		newPublicURLCommand(),
		newRoutesCommand(),
		newShellCommand(),
	)

	return root
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// withApp bootstraps an App for the command and saves the credential afterwards.
func withApp(run runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return err
		}
		log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel).With("command", cmd.Name())

		ctx := cmd.Context()
		a, err := app.Bootstrap(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("CLI: failed to save credentials", "error", err.Error())
			}
		}()

		if _, err := a.Session().Restoration().Wait(ctx); err != nil {
			return err
		}

		return run(ctx, a, cmd, args)
	}
}
