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

// PageScraper defines the interface for fetching a rendered web page
type PageScraper interface {
	Scrape(ctx context.Context, url string) (*ScrapeResult, error)
}

// FirecrawlClient implements PageScraper for the Firecrawl scrape API
type FirecrawlClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ScrapeRequest represents the request body for /v1/scrape
type ScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

// ScrapeResponse represents the response from /v1/scrape
type ScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string         `json:"markdown"`
		HTML     string         `json:"html"`
		Metadata ScrapeMetadata `json:"metadata"`
	} `json:"data"`
}

// ScrapeMetadata carries page metadata reported by Firecrawl
type ScrapeMetadata struct {
	Title      string `json:"title"`
	SourceURL  string `json:"sourceURL"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
}

// ScrapeResult is the scraped page in the formats the pipeline uses
type ScrapeResult struct {
	URL        string
	Title      string
	HTML       string
	Markdown   string
	StatusCode int
}

// NewFirecrawlClient creates a new Firecrawl API client
func NewFirecrawlClient(cfg *config.FirecrawlConfig) *FirecrawlClient {
	return &FirecrawlClient{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// Scrape fetches the main content of a page
func (c *FirecrawlClient) Scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	reqBody := ScrapeRequest{
		URL:             url,
		Formats:         []string{"html", "markdown"},
		OnlyMainContent: true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firecrawl API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var scrapeResp ScrapeResponse
	if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !scrapeResp.Success {
		return nil, fmt.Errorf("firecrawl scrape failed: %s", scrapeResp.Error)
	}

	meta := scrapeResp.Data.Metadata
	if meta.StatusCode >= 400 {
		return nil, fmt.Errorf("page returned status %d: %s", meta.StatusCode, meta.Error)
	}

	sourceURL := meta.SourceURL
	if sourceURL == "" {
		sourceURL = url
	}

	return &ScrapeResult{
		URL:        sourceURL,
		Title:      meta.Title,
		HTML:       scrapeResp.Data.HTML,
		Markdown:   scrapeResp.Data.Markdown,
		StatusCode: meta.StatusCode,
	}, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *FirecrawlClient) IsConfigured() bool {
	return c.apiKey != ""
}
