package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR extracts text using the Mistral OCR API, which returns one
// markdown block per page.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	maxPages int
	client   *http.Client
}

// NewMistralOCR creates a MistralOCR extractor.
func NewMistralOCR(apiKey string) *MistralOCR {
	return &MistralOCR{
		apiKey:   apiKey,
		model:    defaultMistralModel,
		endpoint: mistralOCREndpoint,
		maxPages: DefaultMaxPages,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

type mistralRequest struct {
	Model    string          `json:"model"`
	Document mistralDocument `json:"document"`
	Pages    []int           `json:"pages,omitempty"`
}

type mistralDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractText implements Extractor. The PDF is sent inline as a data URL.
func (m *MistralOCR) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	reqBody := mistralRequest{
		Model: m.model,
		Document: mistralDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
		},
	}
	for i := 0; i < m.maxPages; i++ {
		reqBody.Pages = append(reqBody.Pages, i)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal mistral request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ocr: mistral request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "ocr: read mistral response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("ocr: mistral returned %d: %s", resp.StatusCode, string(body))
	}

	var out mistralResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", eris.Wrap(err, "ocr: decode mistral response")
	}

	pages := make([]string, 0, len(out.Pages))
	for _, p := range out.Pages {
		pages = append(pages, p.Markdown)
	}
	return strings.Join(pages, "\n\n"), nil
}
