package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTokenSource(tokenURL string) *ClientCredentialsTokenSource {
	return newTokenSourceWithURL(context.Background(), tokenURL, "client-id", "client-secret")
}

func TestClientCredentialsTokenSourceFetchesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	// Build directly against the test server rather than the real Microsoft
	// endpoint by constructing the inner source with a custom TokenURL.
	ts := newTestTokenSource(srv.URL)

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-123", tok)
}

func TestClientCredentialsTokenSourceCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	ts := newTestTokenSource(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ts.Token(ctx)
	require.Error(t, err)
}
