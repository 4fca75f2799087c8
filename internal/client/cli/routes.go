package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/gamelib/internal/client/auth"
	"github.com/iudanet/gamelib/internal/client/router"
)

var appRedirects = router.Redirects{
	Login:   "/login",
	Landing: "/games",
}

func appRoutes(backend Backend) []router.Route {
	profile := router.Loader{
		Name: "profile",
		Load: func(ctx context.Context, snap auth.Snapshot) (string, error) {
			user, err := backend.Me(ctx, snap.Token)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("signed in as %s (%s)", user.Identifier, user.ID), nil
		},
	}

	server := router.Loader{
		Name: "server",
		Load: func(ctx context.Context, _ auth.Snapshot) (string, error) {
			health, err := backend.Health(ctx)
			if err != nil {
				return "", err
			}
			if health.Version != "" {
				return fmt.Sprintf("%s (version %s)", health.Status, health.Version), nil
			}
			return health.Status, nil
		},
	}

	protected := func(path, title string) router.Route {
		return router.Route{
			Path:    path,
			Title:   title,
			Access:  router.AccessAuthenticated,
			Loaders: []router.Loader{profile},
		}
	}

	return []router.Route{
		{Path: "/", Title: "Home", Access: router.AccessPublic, Loaders: []router.Loader{server}},
		{Path: "/login", Title: "Sign in", Access: router.AccessGuest},
		{Path: "/register", Title: "Create account", Access: router.AccessGuest},
		protected("/games", "Games"),
		protected("/platforms", "Platforms"),
		protected("/collections", "Collections"),
		protected("/preferences", "Preferences"),
	}
}
