package external

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"casenotify/internal/types"
)

// Compile-time assertion that DocStoreClient implements types.DocumentStore.
var _ types.DocumentStore = (*DocStoreClient)(nil)

// DocStoreClient fetches stored case documents (direction text attachments)
// from the document store over HTTP.
type DocStoreClient struct {
	base    *BaseClient
	baseURL string
	apiKey  string
}

// NewDocStoreClient creates a client for the document store at baseURL.
func NewDocStoreClient(httpClient *http.Client, baseURL, apiKey string, opts ...BaseClientOption) *DocStoreClient {
	opts = append([]BaseClientOption{WithUnavailableCode(types.ErrCodeUpstreamDocumentStore)}, opts...)
	return &DocStoreClient{
		base:    NewBaseClient(httpClient, "document-store", DefaultRetryPolicy(), "casenotify/1.0", opts...),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Fetch downloads the document bytes by reference. A missing document is a
// content fault rather than an upstream one: redelivery cannot make it
// appear.
func (c *DocStoreClient) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/documents/"+url.PathEscape(ref), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "build document store request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewAppError(
			types.ErrCodeContentMissingAttachment,
			fmt.Sprintf("document %q not found in store", ref),
			nil,
		)
	default:
		return nil, types.NewAppError(
			types.ErrCodeUpstreamDocumentStore,
			fmt.Sprintf("document store returned %d", resp.StatusCode),
			nil,
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeContentUnreadableDocument,
			fmt.Sprintf("read document %q", ref),
			err,
		)
	}
	return data, nil
}
