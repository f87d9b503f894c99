package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/greentrace/authapi"
	"github.com/jrsteele09/greentrace/token"
	"github.com/jrsteele09/greentrace/token/jwt"
	fakeuserrepo "github.com/jrsteele09/greentrace/users/repofake"
)

const mockAPICleanupInterval = 10 * time.Minute

func newMockAPICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mock-api",
		Short: "Start the in-memory reference auth API",
		Long: `mock-api serves the auth endpoints the web shell and CLI talk to, keeping
accounts in memory. Reset tokens are returned in the forgot-password response
since no mail is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mockAPI(cmd.Context())
		},
	}
}

func (a *app) newAuthAPI() (*authapi.Service, error) {
	creator, err := jwt.NewCreator(a.cfg.GetJWTSecret(), a.cfg.GetTokenExpiry(), a.cfg.GetAppName())
	if err != nil {
		return nil, err
	}
	return authapi.NewService(fakeuserrepo.NewFakeUserRepo(), creator, token.NewMemoryDenylist())
}

func (a *app) mockAPI(ctx context.Context) error {
	displayAppname(a.cfg.GetAppName() + " API")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, err := a.newAuthAPI()
	if err != nil {
		return err
	}
	go svc.RunCleanup(ctx, mockAPICleanupInterval)

	httpServer := &http.Server{
		Addr:              a.cfg.GetMockAPIPort(),
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return runUntilStopped(httpServer)
}
