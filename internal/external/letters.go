package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"casenotify/internal/types"
)

// Compile-time assertions for the letter provider client.
var (
	_ types.LetterSender    = (*LetterClient)(nil)
	_ types.LetterGenerator = (*LetterClient)(nil)
)

// LetterClient talks to the postal letter provider over HTTP. The provider
// renders cover documents from stored templates and accepts assembled PDFs
// for printing and posting.
type LetterClient struct {
	base    *BaseClient
	baseURL string
	apiKey  string
	logger  types.Logger
}

// NewLetterClient creates a client for the letter provider at baseURL.
func NewLetterClient(httpClient *http.Client, baseURL, apiKey string, logger types.Logger, opts ...BaseClientOption) *LetterClient {
	opts = append([]BaseClientOption{WithUnavailableCode(types.ErrCodeUpstreamLetterProvider)}, opts...)
	return &LetterClient{
		base:    NewBaseClient(httpClient, "letter-provider", DefaultRetryPolicy(), "casenotify/1.0", opts...),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

type renderRequest struct {
	TemplateID   string             `json:"template_id"`
	Placeholders types.Placeholders `json:"placeholders"`
}

type renderResponse struct {
	PDF []byte `json:"pdf"`
}

// GenerateCover renders the letter template into a PDF cover document.
func (c *LetterClient) GenerateCover(ctx context.Context, templateID string, placeholders types.Placeholders) ([]byte, error) {
	body, err := json.Marshal(renderRequest{TemplateID: templateID, Placeholders: placeholders})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "marshal render request", err)
	}

	resp, err := c.post(ctx, "/render", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewAppError(
			types.ErrCodeConfigMissingTemplate,
			fmt.Sprintf("letter template %q not found", templateID),
			nil,
		)
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, types.NewAppError(
			types.ErrCodeContentMalformedTemplate,
			fmt.Sprintf("letter provider rejected template %q", templateID),
			nil,
		)
	default:
		return nil, types.NewAppError(
			types.ErrCodeUpstreamLetterProvider,
			fmt.Sprintf("letter render returned %d", resp.StatusCode),
			nil,
		)
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamLetterProvider, "decode render response", err)
	}
	return rendered.PDF, nil
}

type sendLetterRequest struct {
	Address      types.Address      `json:"address"`
	PDFBase64    string             `json:"pdf_base64"`
	Placeholders types.Placeholders `json:"placeholders,omitempty"`
	Reference    string             `json:"reference"`
}

// SendLetter submits the assembled PDF for printing and posting. The
// reference is the provider's deduplication key, which makes redelivered
// events safe.
func (c *LetterClient) SendLetter(ctx context.Context, address types.Address, pdf []byte, placeholders types.Placeholders, reference string) error {
	body, err := json.Marshal(sendLetterRequest{
		Address:      address,
		PDFBase64:    base64.StdEncoding.EncodeToString(pdf),
		Placeholders: placeholders,
		Reference:    reference,
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "marshal letter request", err)
	}

	resp, err := c.post(ctx, "/letters", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Info("letter accepted by provider", "reference", reference)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return types.NewAppError(
			types.ErrCodeContentMalformedTemplate,
			fmt.Sprintf("letter provider rejected submission (%d): %s", resp.StatusCode, detail),
			nil,
		)
	}
	return types.NewAppError(
		types.ErrCodeUpstreamLetterProvider,
		fmt.Sprintf("letter submission returned %d", resp.StatusCode),
		nil,
	)
}

func (c *LetterClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "build letter provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.base.Do(req)
}
