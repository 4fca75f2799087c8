package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/iudanet/gamelib/internal/client/iocli"
)

// annotationNoApp - команда работает без локальной базы и сервера
const annotationNoApp = "gamelib/no-app"

// BuildInfo - версия сборки, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

type rootOptions struct {
	serverURL string
	dbPath    string
	verbose   bool
}

// commandEnv - общее состояние команд одного запуска
type commandEnv struct {
	io     iocli.IO
	stderr io.Writer
	app    *App
	build  BuildInfo
	opts   rootOptions
}

// Execute разбирает args и выполняет команду
func Execute(ctx context.Context, args []string, stdio iocli.IO, stderr io.Writer, build BuildInfo) error {
	env := &commandEnv{io: stdio, stderr: stderr, build: build}

	root := env.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdio)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if env.app != nil {
		err = errors.Join(err, env.app.Close())
	}
	return err
}

func (e *commandEnv) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gamelib",
		Short: "Game library tracker client",
		Long: `Terminal client for the gamelib server.

The session token is kept in a local database; protected routes
are opened only when a session is present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoApp] != "" {
				return nil
			}
			app, err := NewApp(cmd.Context(), Options{
				ServerURL: e.opts.serverURL,
				DBPath:    e.opts.dbPath,
				Logger:    e.logger(),
				IO:        e.io,
			})
			if err != nil {
				return err
			}
			e.app = app
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.opts.serverURL, "server", envOr("GAMELIB_SERVER", DefaultServerURL), "server URL (env GAMELIB_SERVER)")
	flags.StringVar(&e.opts.dbPath, "db", envOr("GAMELIB_DB", DefaultDBPath), "path to local database (env GAMELIB_DB)")
	flags.BoolVarP(&e.opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		e.registerCmd(),
		e.loginCmd(),
		e.logoutCmd(),
		e.statusCmd(),
		e.whoamiCmd(),
		e.openCmd(),
		e.routesCmd(),
		e.versionCmd(),
	)

	return root
}

// logger пишет в stderr, по умолчанию только предупреждения
func (e *commandEnv) logger() *slog.Logger {
	level := slog.LevelWarn
	if e.opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
}

func (e *commandEnv) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoApp: "true"},
		Run: func(_ *cobra.Command, _ []string) {
			e.io.Printf("gamelib client\n")
			e.io.Printf("  Version:    %s\n", e.build.Version)
			e.io.Printf("  Built:      %s\n", e.build.BuildDate)
			e.io.Printf("  Commit:     %s\n", e.build.GitCommit)
			e.io.Printf("  Go version: %s\n", runtime.Version())
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
