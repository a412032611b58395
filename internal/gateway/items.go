package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type hashFacet struct {
	QuickXorHash string `json:"quickXorHash"`
}

type fileFacet struct {
	Hashes *hashFacet `json:"hashes"`
}

type driveItemResponse struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Size            int64        `json:"size"`
	WebURL          string       `json:"webUrl"`
	CreatedDateTime string       `json:"createdDateTime"`
	Folder          *folderFacet `json:"folder"`
	File            *fileFacet   `json:"file"`
	DownloadURL     string       `json:"@microsoft.graph.downloadUrl"` //nolint:tagliatelle // Graph API annotation key
}

type listChildrenResponse struct {
	Value    []driveItemResponse `json:"value"`
	NextLink string              `json:"@odata.nextLink"` //nolint:tagliatelle // OData annotation key
}

// toRemoteItem normalizes a raw Graph driveItem into a RemoteItem, logging
// a warning (not failing the walk) for timestamps it cannot parse.
func (d *driveItemResponse) toRemoteItem(logger *slog.Logger) RemoteItem {
	item := RemoteItem{
		ID:          d.ID,
		Name:        d.Name,
		IsFolder:    d.Folder != nil,
		WebURL:      d.WebURL,
		Size:        d.Size,
		DownloadURL: d.DownloadURL,
		CreatedDate: truncateToDate(d.CreatedDateTime, d.ID, logger),
	}

	if d.File != nil && d.File.Hashes != nil {
		item.QuickXorHash = d.File.Hashes.QuickXorHash
	}

	return item
}

// truncateToDate parses an RFC3339 timestamp and truncates it to a bare
// YYYY-MM-DD date, per the sidecar's creation_date contract. An empty
// timestamp yields "". An unparsable one is logged and its first ten
// characters (the whole string, if shorter) are returned, so the caller
// still has something stable to compare against across runs.
func truncateToDate(raw, itemID string, logger *slog.Logger) string {
	if raw == "" {
		return ""
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("could not parse createdDateTime, using raw value",
			slog.String("item_id", itemID), slog.String("raw", raw), slog.String("error", err.Error()))

		if len(raw) >= len("2006-01-02") {
			return raw[:len("2006-01-02")]
		}

		return raw
	}

	return t.Format("2006-01-02")
}

// listChildrenPageSize is the $top value for ListChildren requests.
const listChildrenPageSize = 200

// ListChildren returns every child item of the folder itemID within
// driveID, following @odata.nextLink pagination. itemID is "root" for the
// drive's top level.
func (c *Client) ListChildren(ctx context.Context, driveID, itemID string) ([]RemoteItem, error) {
	path := fmt.Sprintf(
		"/drives/%s/items/%s/children?$top=%d&$select=id,name,size,webUrl,createdDateTime,folder,file,@microsoft.graph.downloadUrl",
		driveID, itemID, listChildrenPageSize,
	)

	var items []RemoteItem

	for path != "" {
		resp, err := c.doAbsoluteOrRelative(ctx, path)
		if err != nil {
			return nil, err
		}

		var lcr listChildrenResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&lcr); decErr != nil {
			resp.Body.Close()

			return nil, fmt.Errorf("gateway: decoding children response: %w", decErr)
		}

		resp.Body.Close()

		for i := range lcr.Value {
			items = append(items, lcr.Value[i].toRemoteItem(c.logger))
		}

		path = lcr.NextLink
	}

	c.logger.Debug("listed children",
		slog.String("drive_id", driveID), slog.String("item_id", itemID), slog.Int("count", len(items)))

	return items, nil
}

// doAbsoluteOrRelative routes a request through do(), stripping the base
// URL prefix if path is actually an absolute @odata.nextLink (the Graph API
// returns full URLs for continuation pages).
func (c *Client) doAbsoluteOrRelative(ctx context.Context, path string) (*http.Response, error) {
	if strings.HasPrefix(path, c.baseURL) {
		path = strings.TrimPrefix(path, c.baseURL)
	}

	return c.do(ctx, http.MethodGet, path, nil)
}
