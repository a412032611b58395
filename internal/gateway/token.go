package gateway

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// microsoftTokenEndpointFmt is the tenant-scoped OAuth2 v2.0 token endpoint
// for the client-credentials grant.
const microsoftTokenEndpointFmt = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// defaultScope is the Graph API application-permission scope requested by
// the client-credentials grant.
const defaultScope = "https://graph.microsoft.com/.default"

// ClientCredentialsTokenSource obtains and caches bearer tokens via the
// OAuth2 client-credentials grant. It satisfies TokenSource. Credential
// acquisition itself is an external collaborator per this system's scope —
// this type exists only to produce the bearer token RemoteGateway needs;
// no core sync logic depends on anything beyond the TokenSource interface.
type ClientCredentialsTokenSource struct {
	inner oauth2.TokenSource
}

// NewClientCredentialsTokenSource builds a token source for the given
// tenant, application (client) ID, and client secret.
func NewClientCredentialsTokenSource(ctx context.Context, tenantID, clientID, clientSecret string) *ClientCredentialsTokenSource {
	return newTokenSourceWithURL(ctx, fmt.Sprintf(microsoftTokenEndpointFmt, tenantID), clientID, clientSecret)
}

// newTokenSourceWithURL builds a token source against an arbitrary token
// endpoint. Exported only to tests via newTestTokenSource, so unit tests
// can point at an httptest server instead of the real Microsoft endpoint.
func newTokenSourceWithURL(ctx context.Context, tokenURL, clientID, clientSecret string) *ClientCredentialsTokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{defaultScope},
	}

	return &ClientCredentialsTokenSource{inner: cfg.TokenSource(ctx)}
}

// Token returns a valid bearer token, transparently refreshing it before
// expiry. The oauth2.ReuseTokenSource wrapping inside clientcredentials
// already caches — callers may call Token on every request.
func (t *ClientCredentialsTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := t.inner.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToken, err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return tok.AccessToken, nil
}
