package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/listsync/internal/server"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const approvalTimeout = 2 * time.Minute

// Auth performs the TMDb request token flow.
//
// Starts a local HTTP server, opens the browser at the approval page, and exchanges the approved token for a session id.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.tmdbFor(cmd)
	if err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = approvalTimeout
	}

	sessionID, err := r.doApproval(ctx, svc, timeout)
	if err != nil {
		return err
	}

	if err := r.saveSession(sessionID); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Session saved to %s\n\n", r.configPath)
	}
	r.writePlain("You can now use: %s sync <dataset.csv>\n", appName)

	return nil
}

// doApproval runs the approval flow with a local callback server and returns the new session id.
func (r *Runner) doApproval(ctx context.Context, auth services.SessionAuthenticator, timeout time.Duration) (string, error) {
	token, err := auth.RequestToken(ctx)
	if err != nil {
		return "", err
	}

	approvalHandler := server.NewApprovalHandler(token)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(approvalHandler)

	r.logger.Infof("starting approval callback server at %v", r.config.Server.Addr())
	srv, err := server.StartCallbackServer(r.config.Server.Addr(), router)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	callbackURL := r.config.Server.CallbackURL()
	if r.config.Server.Port == 0 {
		callbackURL = "http://" + srv.Addr() + "/callback"
	}
	approveURL := auth.ApproveURL(token, callbackURL)

	r.writePlain("→ Opening browser for TMDb approval...\n")
	if err := r.openBrowser(approveURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", approveURL)
	}

	r.writePlain("→ Waiting for approval (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.ApprovalResult

	select {
	case result = <-approvalHandler.Result():
	case err := <-srv.Errors():
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: approval timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", shared.ErrCancelled, ctx.Err())
	}

	if result.Error() != nil {
		return "", fmt.Errorf("approval failed: %w", result.Error())
	}

	sessionID, err := auth.CreateSession(ctx, result.RequestToken)
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// saveSession stores sessionID in the config and writes it back to the config file when one is known.
func (r *Runner) saveSession(sessionID string) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", shared.ErrAuthFailed)
	}

	r.config.Credentials.TMDb.SessionID = sessionID
	if r.tmdb != nil {
		r.tmdb.SetSession(sessionID)
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
