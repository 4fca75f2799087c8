package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamelib/internal/client/api"
	"github.com/iudanet/gamelib/internal/client/router"
)

func (e *commandEnv) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a route through the navigation guard",
		Example: `  gamelib open /games
  gamelib open /login`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.navigate(cmd.Context(), args[0])
		},
	}
}

func (e *commandEnv) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List routes and their access requirements",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(e.io, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PATH\tACCESS\tTITLE")
			for _, route := range e.app.router.Routes() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", route.Path, route.Access, route.Title)
			}
			return w.Flush()
		},
	}
}

// navigate открывает путь и печатает цепочку решений и результаты загрузчиков
func (e *commandEnv) navigate(ctx context.Context, path string) error {
	nav, err := e.app.router.Navigate(ctx, path)
	if nav != nil && len(nav.Decisions) > 0 {
		e.printNavigation(nav)
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return fmt.Errorf("session rejected by server, run 'gamelib login': %w", err)
		}
		return err
	}
	return nil
}

func (e *commandEnv) printNavigation(nav *router.Navigation) {
	e.io.Printf("Navigation: %s\n", nav.Requested)
	for _, d := range nav.Decisions {
		switch d.State {
		case router.StateRedirected:
			mode := "push"
			if d.Replace {
				mode = "replace"
			}
			e.io.Printf("  %s: %s -> %s (%s)\n", d.Path, d.State, d.Target, mode)
		default:
			e.io.Printf("  %s: %s\n", d.Path, d.State)
		}
	}

	if nav.Final.State != router.StateAllowed {
		return
	}

	e.io.Printf("Route: %s [%s] %s\n", nav.Route.Path, nav.Route.Access, nav.Route.Title)
	for _, res := range nav.Results {
		if res.Err != nil {
			e.io.Printf("  [%s] error: %v\n", res.Name, res.Err)
			continue
		}
		e.io.Printf("  [%s] %s\n", res.Name, res.Output)
	}
}
