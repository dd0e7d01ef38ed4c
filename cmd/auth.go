package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/curator/internal/auth"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/server"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// AuthLogin opens the backend login page and waits for its redirect to the local callback server.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.wire(); err != nil {
		return err
	}

	handler := server.NewCallbackHandler()
	srv, err := server.NewCallbackServer(r.config.Server.CallbackAddr(), handler, r.logger)
	if err != nil {
		return err
	}
	srv.Start()

	loginURL := auth.LoginURL(r.config.API.BaseURL)
	r.logger.Info("starting login", "callback", srv.URL())

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", loginURL)
	} else {
		r.writePlain("→ Opening browser for login...\n")
		launched, err := shared.OpenBrowser(loginURL)
		if err != nil {
			r.logger.Warn("failed to open browser automatically", "command", launched, "error", err)
			r.writePlain("⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", loginURL)
		} else {
			r.logger.Debug("browser launched", "command", launched)
		}
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = loginTimeout
	}
	r.writePlain("→ Waiting for login (%s timeout)...\n", timeout)

	creds, err := srv.Wait(ctx, timeout)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return r.storeCredentials(creds)
}

// AuthCallback stores the tokens from a callback URL copied out of the browser.
func (r *Runner) AuthCallback(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: callback url", shared.ErrMissingArgument)
	}

	creds, err := auth.ParseCallbackURL(raw)
	if err != nil {
		return err
	}

	if err := r.wire(); err != nil {
		return err
	}
	return r.storeCredentials(creds)
}

func (r *Runner) storeCredentials(creds models.Credentials) error {
	if err := r.store.Set(creds.PrimaryAccess, creds.PrimaryRefresh, creds.ProviderAccess); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	r.logger.Info("login successful")
	return r.writePlain("✓ Logged in\n")
}

// AuthLogout clears the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.wire(); err != nil {
		return err
	}
	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports which tokens are stored without printing them.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.wire(); err != nil {
		return err
	}

	creds := r.store.Snapshot()
	if r.store.IsAuthenticated() {
		r.writePlain("✓ Logged in\n")
	} else {
		r.writePlain("✗ Not logged in\n")
	}

	for _, kind := range models.TokenKinds {
		mark := "✗"
		if creds.Get(kind) != "" {
			mark = "✓"
		}
		r.writePlain("  %s %s\n", mark, kind)
	}
	return nil
}

// AuthRefresh forces a token refresh.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.wire(); err != nil {
		return err
	}
	if _, err := r.coordinator.Refresh(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Session refreshed\n")
}
