package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StreamContent opens a GET to url and returns the response body as a
// chunked read stream. When authenticated is true, a bearer token is
// attached (the authenticated /drives/{id}/items/{id}/content endpoint);
// when false, url is assumed to be a pre-signed download URL that is
// already authenticated by its query string. Status 200 or 206 is
// accepted; anything else is a DownloadHTTPError. The URL is never logged
// — pre-signed URLs embed an access token in their query string.
func (c *Client) StreamContent(ctx context.Context, url string, authenticated bool) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("gateway: creating download request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	if authenticated {
		tok, tokErr := c.token.Token(ctx)
		if tokErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrToken, tokErr)
		}

		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("gateway: download canceled: %w", ctx.Err())
		}

		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()

		return nil, &DownloadHTTPError{Status: resp.StatusCode}
	}

	return resp.Body, nil
}
