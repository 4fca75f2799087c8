package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamelib/internal/client/api"
	"github.com/iudanet/gamelib/internal/client/auth"
	pkgapi "github.com/iudanet/gamelib/pkg/api"
)

type credentialsFunc func(ctx context.Context, identifier, secret string) (*pkgapi.SessionResponse, error)

func (e *commandEnv) registerCmd() *cobra.Command {
	var identifier string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runCredentials(cmd.Context(), "Register", identifier, e.app.service.Register)
		},
	}
	cmd.Flags().StringVarP(&identifier, "identifier", "i", "", "identifier (prompted if empty)")
	return cmd
}

func (e *commandEnv) loginCmd() *cobra.Command {
	var identifier string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runCredentials(cmd.Context(), "Login", identifier, e.app.service.Login)
		},
	}
	cmd.Flags().StringVarP(&identifier, "identifier", "i", "", "identifier (prompted if empty)")
	return cmd
}

func (e *commandEnv) runCredentials(ctx context.Context, title, identifier string, do credentialsFunc) error {
	e.io.Printf("=== %s ===\n\n", title)

	if identifier == "" {
		var err error
		identifier, err = e.io.ReadInput("Identifier: ")
		if err != nil {
			return fmt.Errorf("failed to read identifier: %w", err)
		}
	}

	secret, err := e.io.ReadPassword("Secret: ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	resp, err := do(ctx, identifier, secret)
	if err != nil {
		return describeAuthError(err)
	}

	e.io.Println()
	e.io.Printf("✓ Signed in as %s\n", resp.User.Identifier)
	e.io.Printf("Session expires: %s\n\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04:05"))

	return e.navigate(ctx, appRedirects.Landing)
}

func (e *commandEnv) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.io.Println("=== Logout ===")

			if err := e.app.service.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}

			e.io.Println("✓ Logout successful!")
			e.io.Println("Your local session has been deleted.")
			e.io.Println()

			return e.navigate(cmd.Context(), appRedirects.Login)
		},
	}
}

func (e *commandEnv) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Ask the server who owns the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := e.app.service.Me(cmd.Context())
			if err != nil {
				return describeAuthError(err)
			}
			e.io.Printf("%s (%s)\n", user.Identifier, user.ID)
			return nil
		},
	}
}

// describeAuthError переводит ошибки сервера в понятные пользователю
func describeAuthError(err error) error {
	var verr *api.ValidationError
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return errors.New("not authenticated, run 'gamelib login' first")
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%w: run 'gamelib login' to sign in again", err)
	case errors.Is(err, api.ErrConflict):
		return fmt.Errorf("%w: choose another identifier or run 'gamelib login'", err)
	case errors.As(err, &verr):
		return verr
	default:
		return err
	}
}
