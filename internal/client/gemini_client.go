package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blogcaster/api/internal/config"
)

// TextGenerator defines the interface for single-turn text generation
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeminiClient handles communication with the Gemini generateContent API
type GeminiClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

// GeminiPart is a text part of a content block
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiContent is a role-tagged list of parts
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GenerationConfig controls sampling
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GenerateContentRequest represents the request body for generateContent
type GenerateContentRequest struct {
	SystemInstruction *GeminiContent  `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// GenerateContentResponse represents the response from generateContent
type GenerateContentResponse struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Generate sends a system instruction and a user prompt and returns the
// concatenated text of the first candidate
func (c *GeminiClient) Generate(ctx context.Context, system, user string) (string, error) {
	reqBody := GenerateContentRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: user}}},
		},
		GenerationConfig: GenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: 2048,
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var genResp GenerateContentResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if genResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", genResp.PromptFeedback.BlockReason)
	}

	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}

// IsConfigured returns true if the client has valid configuration
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}
