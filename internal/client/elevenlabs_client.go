package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/model"
)

// SpeechSynthesizer defines the interface for text-to-speech operations
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]model.SynthesizedAudio, error)
}

// ElevenLabsClient implements SpeechSynthesizer for the ElevenLabs API
type ElevenLabsClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	voiceID      string
	modelID      string
	outputFormat string
}

// SpeechRequest represents the request body for text-to-speech
type SpeechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// SpeechWithTimestampsResponse represents the JSON response of the
// with-timestamps endpoint
type SpeechWithTimestampsResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Alignment   *struct {
		Characters                 []string  `json:"characters"`
		CharacterStartTimesSeconds []float64 `json:"character_start_times_seconds"`
		CharacterEndTimesSeconds   []float64 `json:"character_end_times_seconds"`
	} `json:"alignment,omitempty"`
}

// NewElevenLabsClient creates a new ElevenLabs API client
func NewElevenLabsClient(cfg *config.ElevenLabsConfig) *ElevenLabsClient {
	return &ElevenLabsClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		voiceID:      cfg.VoiceID,
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
	}
}

// Synthesize renders text with the configured voice/model pairing. An empty
// audio payload yields an empty slice, not an error.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]model.SynthesizedAudio, error) {
	reqBody := SpeechRequest{
		Text:    text,
		ModelID: c.modelID,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/with-timestamps", c.baseURL, url.PathEscape(c.voiceID))
	if c.outputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(c.outputFormat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("elevenlabs API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var speechResp SpeechWithTimestampsResponse
	if err := json.Unmarshal(respBody, &speechResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if speechResp.AudioBase64 == "" {
		return []model.SynthesizedAudio{}, nil
	}

	return []model.SynthesizedAudio{{
		Base64Audio: speechResp.AudioBase64,
		Encoding:    c.outputFormat,
	}}, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *ElevenLabsClient) IsConfigured() bool {
	return c.apiKey != "" && c.voiceID != ""
}
