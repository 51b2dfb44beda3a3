package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/normalize"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.5-flash"
	requestTimeout  = 90 * time.Second
)

// apiKeyHeader carries the API key.
const apiKeyHeader = "x-goog-api-key"

// ErrNoAPIKey is returned when the client has no key configured.
var ErrNoAPIKey = errors.New("API key not configured")

// ErrEmptyResponse is returned when the service answers without text.
var ErrEmptyResponse = errors.New("no response from structuring service")

// Gemini calls the generateContent endpoint with a JSON response schema.
type Gemini struct {
	Endpoint string
	Model    string
	APIKey   string
	client   *http.Client
	log      *zap.Logger
}

// NewGemini creates a Gemini client. Empty endpoint and model use the
// defaults.
func NewGemini(endpoint, model, apiKey string, log *zap.Logger) *Gemini {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		Endpoint: endpoint,
		Model:    model,
		APIKey:   apiKey,
		client:   &http.Client{Timeout: requestTimeout},
		log:      log.Named("gemini"),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// responseSchema constrains the service to the document shape.
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"title":    map[string]any{"type": "STRING", "description": "文档主标题"},
		"subtitle": map[string]any{"type": "STRING", "description": "副标题 (可选)"},
		"author":   map[string]any{"type": "STRING", "description": "作者/日期 (可选)"},
		"sections": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"type": map[string]any{
						"type": "STRING",
						"enum": []string{"heading", "subheading", "paragraph", "bullet_list", "numbered_list", "quote"},
					},
					"content": map[string]any{
						"type":        "STRING",
						"description": "段落内容。如果是列表，请用竖线 '|' 分隔每一项，例如 '第一项|第二项'。",
					},
				},
				"required": []string{"type", "content"},
			},
		},
	},
	"required": []string{"title", "sections"},
}

// Structure sends text to the service and parses the candidate document.
func (g *Gemini) Structure(ctx context.Context, text, themeID string, mode core.Mode) (*normalize.Candidate, error) {
	if g.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: Prompt(text, themeID, mode)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	// The key travels in a header so transport errors, which print the URL,
	// never carry it.
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.Endpoint, url.PathEscape(g.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, g.APIKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling structuring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("structuring service returned %d: %s", resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding structuring response: %w", err)
	}
	var answer bytes.Buffer
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			answer.WriteString(p.Text)
		}
		if answer.Len() > 0 {
			break
		}
	}
	if answer.Len() == 0 {
		return nil, ErrEmptyResponse
	}
	g.log.Debug("Structured text",
		zap.String("model", g.Model),
		zap.String("mode", string(mode)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", answer.Len()))

	return normalize.Parse(answer.Bytes())
}
