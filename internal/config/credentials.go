package config

import (
	"fmt"
	"strings"
)

// Environment variables holding the three provider secrets.
const (
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvElevenLabsAPIKey = "ELEVEN_LABS_API_KEY"
	EnvFirecrawlAPIKey  = "FIRECRAWL_API_KEY"
)

// RequiredCredentials lists every secret that must be present before a
// podcast can be generated, in the order they are reported.
var RequiredCredentials = []string{EnvGeminiAPIKey, EnvElevenLabsAPIKey, EnvFirecrawlAPIKey}

// Credentials is the provider secret set, built once at startup.
type Credentials struct {
	GeminiAPIKey     string
	ElevenLabsAPIKey string
	FirecrawlAPIKey  string
}

// Missing returns the environment variable names of absent secrets.
func (c Credentials) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		missing = append(missing, EnvGeminiAPIKey)
	}
	if strings.TrimSpace(c.ElevenLabsAPIKey) == "" {
		missing = append(missing, EnvElevenLabsAPIKey)
	}
	if strings.TrimSpace(c.FirecrawlAPIKey) == "" {
		missing = append(missing, EnvFirecrawlAPIKey)
	}
	return missing
}

// Complete reports whether all required secrets are present.
func (c Credentials) Complete() bool {
	return len(c.Missing()) == 0
}

// Loaded returns per-variable presence, keyed by environment variable name.
func (c Credentials) Loaded() map[string]bool {
	missing := make(map[string]bool)
	for _, k := range c.Missing() {
		missing[k] = true
	}
	loaded := make(map[string]bool, len(RequiredCredentials))
	for _, k := range RequiredCredentials {
		loaded[k] = !missing[k]
	}
	return loaded
}

// Warning is the combined message shown while generation is disabled. It
// always names all required variables, not only the absent ones.
func (c Credentials) Warning() string {
	if c.Complete() {
		return ""
	}
	names := RequiredCredentials
	list := strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	return fmt.Sprintf("API keys not found. Please create a .env file and add your %s.", list)
}
