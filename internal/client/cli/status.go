package cli

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func (e *commandEnv) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			e.runStatus(time.Now())
		},
	}
}

func (e *commandEnv) runStatus(now time.Time) {
	e.io.Println("=== Authentication Status ===")
	e.io.Println()

	snap := e.app.authCtx.Snapshot()
	if !snap.Authenticated() {
		e.io.Println("Status: Not authenticated")
		e.io.Println()
		e.io.Println("Run 'gamelib login' to authenticate.")
		return
	}

	e.io.Println("Status: Authenticated")
	e.io.Printf("Identifier: %s\n", snap.User.Identifier)
	e.io.Printf("User ID: %s\n", snap.User.ID)

	// срок действия только для информации, решает сервер
	expiresAt, ok := tokenExpiry(snap.Token)
	if !ok {
		e.io.Println("Token expires: unknown")
		return
	}

	e.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	if remaining := expiresAt.Sub(now); remaining > 0 {
		e.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		e.io.Println("⚠️  Token has expired. Please login again.")
	}
}

// tokenExpiry читает exp без проверки подписи, секрета у клиента нет
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
