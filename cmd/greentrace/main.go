package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/greentrace/apiclient"
	"github.com/jrsteele09/greentrace/auth"
	"github.com/jrsteele09/greentrace/internal/config"
	"github.com/jrsteele09/greentrace/internal/logging"
	"github.com/jrsteele09/greentrace/sessions"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root command has loaded it
type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "greentrace",
		Short: "GreenTrace session shell",
		Long: `greentrace runs the GreenTrace web shell and manages the signed in session
from the terminal.

Example usage:
  greentrace mock-api            # Start the reference auth API
  greentrace serve               # Start the web shell
  greentrace login -e you@example.com
  greentrace whoami`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(cfg.GetEnv(), cfg.GetLogLevel())
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newMockAPICmd(a),
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newForgotPasswordCmd(a),
		newResetPasswordCmd(a),
		newPasswordStrengthCmd(),
	)
	return root
}

// openSession builds the store, API client and session manager from the loaded config.
// The returned close func releases the store.
func (a *app) openSession(ctx context.Context) (*auth.Manager, func(), error) {
	store, err := sessions.Open(ctx, sessions.Options{
		Backend:        a.cfg.GetSessionStore(),
		DataFolder:     a.cfg.GetDataFolder(),
		RedisURL:       a.cfg.GetRedisURL(),
		RedisKeyPrefix: a.cfg.GetRedisKeyPrefix(),
	})
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("closing session store")
			}
		}
	}

	api, err := apiclient.New(a.cfg.GetAPIBaseURL(), apiclient.WithTimeout(a.cfg.GetHTTPTimeout()))
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	manager, err := auth.NewManager(api, store,
		auth.WithLogger(a.logger),
		auth.WithVerifyTimeout(a.cfg.GetVerifyTimeout()),
		auth.WithVerifyRetries(a.cfg.GetVerifyRetries()),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return manager, closeStore, nil
}
