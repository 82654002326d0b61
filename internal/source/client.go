package source

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// NewHTTPClient returns base, or a copy of it that authenticates with token
func NewHTTPClient(ctx context.Context, base *http.Client, token string) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if token == "" {
		return base
	}

	// oauth2 builds its transport on top of the client found in the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	authed.Timeout = base.Timeout
	return authed
}
