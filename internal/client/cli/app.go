// Package cli implements the PackVault operator console, an interactive
// shell over the server's HTTP API. Operator tokens are minted locally from
// the shared HMAC secret, so the console works without a login endpoint.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmolchanov/packvault/internal/client/api"
	"github.com/dmolchanov/packvault/internal/client/config"
	"github.com/dmolchanov/packvault/internal/server/auth"
)

type App struct {
	config   *config.Config
	api      *api.Client
	reader   *bufio.Reader
	loggedIn bool
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerEndpointAddr),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

// Login prompts for the shared secret and mints a token for the configured
// account.
func (a *App) Login(ctx context.Context) error {
	secret, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken(a.config.Account, secret, a.config.TokenValidity)
	if err != nil {
		return err
	}

	a.api.SetToken(token)
	a.loggedIn = true
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.SetToken("")
	a.loggedIn = false
	return nil
}
