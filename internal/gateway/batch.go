package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// GraphBatchLimit is the maximum number of sub-requests the remote batch
// endpoint accepts in a single POST. Callers are responsible for chunking.
const GraphBatchLimit = 20

// batchPOSTTimeout bounds the whole POST round-trip; batchJSONReadTimeout
// additionally bounds decoding the response body once headers arrive.
const (
	batchPOSTTimeout     = 60 * time.Second
	batchJSONReadTimeout = 30 * time.Second
)

// BatchRequestItem identifies one drive item to resolve in a batch call.
type BatchRequestItem struct {
	DriveID string
	ItemID  string
}

type batchSubRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

type batchRequestBody struct {
	Requests []batchSubRequest `json:"requests"`
}

type batchSubResponse struct {
	ID     string          `json:"id"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type batchResponseBody struct {
	Responses []batchSubResponse `json:"responses"`
}

type batchItemBody struct {
	Size        int64      `json:"size"`
	DownloadURL string     `json:"@microsoft.graph.downloadUrl"` //nolint:tagliatelle // Graph API annotation key
	File        *fileFacet `json:"file"`
	Hashes      *hashFacet `json:"hashes"`
}

// BatchResolve POSTs up to GraphBatchLimit sub-requests to the batch
// endpoint in one call and returns a per-index outcome map. A caller-level
// timeout of 60s wraps the POST; decoding the JSON body is separately
// bounded to 30s. A non-200 status from the batch endpoint itself (as
// opposed to a sub-request) yields an empty map — every entry is treated
// as unresolved for this pass, per the source system's documented (if
// debatable) behavior; see DESIGN.md for the Config.RequeueOnBatch
// opt-in upgrade. A failure to obtain a bearer token is not swallowed this
// way: it is returned as an error wrapping ErrToken so the caller can
// requeue the whole batch unconditionally instead of resolving it as
// unresolved-but-final.
func (c *Client) BatchResolve(ctx context.Context, items []BatchRequestItem) (map[int]ResolveOutcome, error) {
	if len(items) > GraphBatchLimit {
		return nil, fmt.Errorf("gateway: batch of %d exceeds limit %d", len(items), GraphBatchLimit)
	}

	postCtx, cancel := context.WithTimeout(ctx, batchPOSTTimeout)
	defer cancel()

	reqBody := batchRequestBody{Requests: make([]batchSubRequest, len(items))}
	for i, it := range items {
		reqBody.Requests[i] = batchSubRequest{
			ID:     fmt.Sprintf("%d", i),
			Method: http.MethodGet,
			URL: fmt.Sprintf(
				"/drives/%s/items/%s?$select=id,name,size,@microsoft.graph.downloadUrl,file,hashes",
				it.DriveID, it.ItemID,
			),
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshaling batch payload: %w", err)
	}

	resp, err := c.do(postCtx, http.MethodPost, "/$batch", bytes.NewReader(payload))
	if err != nil {
		if postCtx.Err() != nil {
			return nil, fmt.Errorf("gateway: batch POST canceled: %w", postCtx.Err())
		}

		if errors.Is(err, ErrToken) {
			return nil, fmt.Errorf("gateway: batch POST failed to obtain token: %w", err)
		}

		c.logger.Error("batch POST failed, treating all entries as unresolved", slog.String("error", err.Error()))

		return map[int]ResolveOutcome{}, nil
	}
	defer resp.Body.Close()

	responses, decodeErr := decodeBatchBody(resp.Body, batchJSONReadTimeout)
	if decodeErr != nil {
		c.logger.Error("reading batch JSON body failed, treating all entries as unresolved",
			slog.String("error", decodeErr.Error()))

		return map[int]ResolveOutcome{}, nil
	}

	return buildOutcomes(items, responses), nil
}

// decodeBatchBody decodes the batch response JSON, bounded by a read
// deadline separate from the outer POST timeout (the source system reads
// the body with its own 30s sub-timeout after a successful 200 headers).
func decodeBatchBody(body io.Reader, timeout time.Duration) (map[string]batchSubResponse, error) {
	type result struct {
		responses map[string]batchSubResponse
		err       error
	}

	done := make(chan result, 1)

	go func() {
		var brb batchResponseBody
		if err := json.NewDecoder(body).Decode(&brb); err != nil {
			done <- result{err: fmt.Errorf("gateway: decoding batch response: %w", err)}

			return
		}

		byID := make(map[string]batchSubResponse, len(brb.Responses))
		for _, r := range brb.Responses {
			byID[r.ID] = r
		}

		done <- result{responses: byID}
	}()

	select {
	case r := <-done:
		return r.responses, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: reading batch response body", ErrTimeout)
	}
}

// buildOutcomes maps each requested item to its resolved outcome by
// position, accepting both the file.hashes.quickXorHash and bare
// hashes.quickXorHash response shapes.
func buildOutcomes(items []BatchRequestItem, responses map[string]batchSubResponse) map[int]ResolveOutcome {
	outcomes := make(map[int]ResolveOutcome, len(items))

	for i := range items {
		sub, ok := responses[fmt.Sprintf("%d", i)]
		if !ok || sub.Status != http.StatusOK {
			continue
		}

		var body batchItemBody
		if err := json.Unmarshal(sub.Body, &body); err != nil {
			continue
		}

		hash := ""

		switch {
		case body.File != nil && body.File.Hashes != nil:
			hash = body.File.Hashes.QuickXorHash
		case body.Hashes != nil:
			hash = body.Hashes.QuickXorHash
		}

		outcomes[i] = ResolveOutcome{
			DownloadURL:  body.DownloadURL,
			Size:         body.Size,
			QuickXorHash: hash,
			OK:           true,
		}
	}

	return outcomes
}
