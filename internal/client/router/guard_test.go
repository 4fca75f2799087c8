package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/gamelib/internal/client/auth"
	"github.com/iudanet/gamelib/pkg/api"
)

var testRedirects = Redirects{Login: "/login", Landing: "/games"}

func signedIn() auth.Snapshot {
	return auth.Snapshot{Token: "token", User: &api.UserSummary{ID: "user-1", Identifier: "alice"}}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		route Route
		snap  auth.Snapshot
		want  Decision
	}{
		{
			name:  "public as guest",
			route: Route{Path: "/", Access: AccessPublic},
			want:  Decision{Path: "/", State: StateAllowed},
		},
		{
			name:  "public signed in",
			route: Route{Path: "/", Access: AccessPublic},
			snap:  signedIn(),
			want:  Decision{Path: "/", State: StateAllowed},
		},
		{
			name:  "protected without token",
			route: Route{Path: "/games", Access: AccessAuthenticated},
			want:  Decision{Path: "/games", State: StateRedirected, Target: "/login"},
		},
		{
			name:  "protected signed in",
			route: Route{Path: "/games", Access: AccessAuthenticated},
			snap:  signedIn(),
			want:  Decision{Path: "/games", State: StateAllowed},
		},
		{
			name:  "guest route without token",
			route: Route{Path: "/login", Access: AccessGuest},
			want:  Decision{Path: "/login", State: StateAllowed},
		},
		{
			name:  "guest route signed in",
			route: Route{Path: "/login", Access: AccessGuest},
			snap:  signedIn(),
			want:  Decision{Path: "/login", State: StateRedirected, Target: "/games", Replace: true},
		},
		{
			name:  "token alone is enough",
			route: Route{Path: "/games", Access: AccessAuthenticated},
			snap:  auth.Snapshot{Token: "token"},
			want:  Decision{Path: "/games", State: StateAllowed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.route, tt.snap, testRedirects))
		})
	}
}

func TestAccessAndStateStrings(t *testing.T) {
	assert.Equal(t, "public", AccessPublic.String())
	assert.Equal(t, "authenticated", AccessAuthenticated.String())
	assert.Equal(t, "guest", AccessGuest.String())
	assert.Equal(t, "unknown", Access(42).String())

	assert.Equal(t, "pending", Decision{}.State.String())
	assert.Equal(t, "allowed", StateAllowed.String())
	assert.Equal(t, "redirected", StateRedirected.String())
}

func TestHistory(t *testing.T) {
	var h History
	assert.Empty(t, h.Current())

	h.Replace("/")
	assert.Equal(t, []string{"/"}, h.Entries())

	h.Push("/login")
	h.Replace("/games")
	h.Push("/platforms")
	assert.Equal(t, []string{"/", "/games", "/platforms"}, h.Entries())
	assert.Equal(t, "/platforms", h.Current())
}
