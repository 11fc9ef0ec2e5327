// Package llm extracts structured bill fields from Markdown text through
// an OpenAI-compatible chat-completions endpoint with structured outputs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"billfold/internal/core"
)

// OpenAIConfig configures the completions endpoint and HTTP behavior.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Extractor turns document Markdown into a validated core.Bill.
type Extractor struct {
	cfg OpenAIConfig
}

// NewExtractor builds an OpenAI chat-completions field extractor.
func NewExtractor(cfg OpenAIConfig) *Extractor {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Extractor{cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type completionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type completionChoice struct {
	Message struct {
		Content string `json:"content"`
		Refusal string `json:"refusal"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ExtractBill asks the model to parse the Markdown rendering of one
// document and returns the validated bill record.
func (e *Extractor) ExtractBill(ctx context.Context, markdown string) (core.Bill, error) {
	if strings.TrimSpace(markdown) == "" {
		return core.Bill{}, fmt.Errorf("empty markdown input")
	}

	payload := completionRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: markdown},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaFormat{
				Name:   "bill",
				Strict: true,
				Schema: json.RawMessage(billSchema),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.Bill{}, fmt.Errorf("marshal completion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return core.Bill{}, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return core.Bill{}, fmt.Errorf("call completions endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return core.Bill{}, fmt.Errorf("read completion response: %w", err)
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return core.Bill{}, fmt.Errorf("decode completion response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if completion.Error != nil {
			return core.Bill{}, fmt.Errorf("completions endpoint returned status %d: %s", resp.StatusCode, completion.Error.Message)
		}
		return core.Bill{}, fmt.Errorf("completions endpoint returned status %d", resp.StatusCode)
	}
	if len(completion.Choices) == 0 {
		return core.Bill{}, fmt.Errorf("completion has no choices")
	}

	choice := completion.Choices[0]
	if choice.Message.Refusal != "" {
		return core.Bill{}, fmt.Errorf("model refused extraction: %s", choice.Message.Refusal)
	}
	if choice.FinishReason != "" && choice.FinishReason != "stop" {
		return core.Bill{}, fmt.Errorf("completion ended early: finish_reason %q", choice.FinishReason)
	}

	var bill core.Bill
	if err := json.Unmarshal([]byte(choice.Message.Content), &bill); err != nil {
		return core.Bill{}, fmt.Errorf("parse extracted fields: %w", err)
	}
	if err := bill.Validate(); err != nil {
		return core.Bill{}, fmt.Errorf("extracted bill failed validation: %w", err)
	}

	slog.DebugContext(ctx, "Extracted bill fields",
		"model", e.cfg.Model,
		"doc_number", bill.DocNumber,
		"doc_type", bill.DocType.String(),
		"total_cents", bill.TotalAmount.Cents)

	return bill, nil
}
