package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleProvider talks to the Gemini generateContent API over plain HTTP.
type GoogleProvider struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a provider for the given Gemini model.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return &GoogleProvider{
		key:     apiKey,
		model:   model,
		baseURL: googleBaseURL,
		client:  &http.Client{},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

// Wire types for generateContent. Assistant turns carry role "model";
// system messages travel separately as the systemInstruction.
type generateRequest struct {
	Contents          []turn          `json:"contents"`
	SystemInstruction *turn           `json:"systemInstruction,omitempty"`
	GenerationConfig  *generateConfig `json:"generationConfig,omitempty"`
}

type turn struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *turn  `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func buildGenerateRequest(req CompletionRequest) generateRequest {
	out := generateRequest{
		GenerationConfig: &generateConfig{Temperature: req.Temperature},
	}
	if req.MaxTokens > 0 {
		out.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}

	var system []part
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, part{Text: msg.Content})
		case RoleAssistant:
			out.Contents = append(out.Contents, turn{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			out.Contents = append(out.Contents, turn{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		out.SystemInstruction = &turn{Parts: system}
	}
	// generateContent rejects an empty contents array.
	if len(out.Contents) == 0 {
		out.Contents = []turn{{Role: "user", Parts: []part{{Text: ""}}}}
	}
	return out
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	payload, err := json.Marshal(buildGenerateRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encoding gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", p.baseURL, model, p.key)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling gemini: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gemini response: %w", err)
	}

	// Error bodies parse as JSON even on non-200 status, so decode first
	// and prefer the structured message.
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("gemini %s: %s", out.Error.Status, out.Error.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d: %s", httpResp.StatusCode, raw)
	}

	resp := &CompletionResponse{Model: model}
	if len(out.Candidates) > 0 {
		cand := out.Candidates[0]
		resp.FinishReason = cand.FinishReason
		if cand.Content != nil {
			var b strings.Builder
			for _, pt := range cand.Content.Parts {
				b.WriteString(pt.Text)
			}
			resp.Content = b.String()
		}
	}
	if out.UsageMetadata != nil {
		resp.InputTokens = out.UsageMetadata.PromptTokenCount
		resp.OutputTokens = out.UsageMetadata.CandidatesTokenCount
	}
	return resp, nil
}
