package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

type driveResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type drivesListResponse struct {
	Value []driveResponse `json:"value"`
}

// ListDrives returns every drive visible at the given site.
func (c *Client) ListDrives(ctx context.Context, siteID string) ([]Drive, error) {
	c.logger.Info("listing drives", slog.String("site_id", siteID))

	path := fmt.Sprintf("/sites/%s/drives", siteID)

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dlr drivesListResponse
	if err := json.NewDecoder(resp.Body).Decode(&dlr); err != nil {
		return nil, fmt.Errorf("gateway: decoding drives response: %w", err)
	}

	drives := make([]Drive, 0, len(dlr.Value))
	for _, d := range dlr.Value {
		drives = append(drives, Drive{ID: d.ID, Name: d.Name})
	}

	c.logger.Info("listed drives", slog.Int("count", len(drives)))

	return drives, nil
}
