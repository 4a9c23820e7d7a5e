package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Gemini     GeminiConfig
	ElevenLabs ElevenLabsConfig
	Firecrawl  FirecrawlConfig
	Pipeline   PipelineConfig
	R2         R2Config
	Database   DatabaseConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string
	APIDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
}

type RateLimitConfig struct {
	PodcastsPerHour int
}

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

type ElevenLabsConfig struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

type FirecrawlConfig struct {
	APIKey  string
	BaseURL string
}

// Length policies applied when a composed script is over budget.
const (
	LengthPolicyTruncate = "truncate"
	LengthPolicyReject   = "reject"
)

type PipelineConfig struct {
	OutputDir       string
	MaxScriptChars  int
	LengthPolicy    string
	ExtractTimeout  time.Duration
	GenerateTimeout time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// Credentials returns the read-once set of provider secrets the pipeline needs.
func (c *Config) Credentials() Credentials {
	return Credentials{
		GeminiAPIKey:     c.Gemini.APIKey,
		ElevenLabsAPIKey: c.ElevenLabs.APIKey,
		FirecrawlAPIKey:  c.Firecrawl.APIKey,
	}
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret(EnvGeminiAPIKey)
	readSecret(EnvElevenLabsAPIKey)
	readSecret(EnvFirecrawlAPIKey)
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("DATABASE_URL")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.log_format", "LOG_FORMAT")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("auth.enabled", "AUTH_ENABLED")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("ratelimit.podcasts_per_hour", "RATELIMIT_PODCASTS_PER_HOUR")
	_ = v.BindEnv("gemini.api_key", EnvGeminiAPIKey)
	_ = v.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = v.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("gemini.temperature", "GEMINI_TEMPERATURE")
	_ = v.BindEnv("elevenlabs.api_key", EnvElevenLabsAPIKey)
	_ = v.BindEnv("elevenlabs.base_url", "ELEVEN_LABS_BASE_URL")
	_ = v.BindEnv("elevenlabs.voice_id", "ELEVEN_LABS_VOICE_ID")
	_ = v.BindEnv("elevenlabs.model_id", "ELEVEN_LABS_MODEL_ID")
	_ = v.BindEnv("elevenlabs.output_format", "ELEVEN_LABS_OUTPUT_FORMAT")
	_ = v.BindEnv("firecrawl.api_key", EnvFirecrawlAPIKey)
	_ = v.BindEnv("firecrawl.base_url", "FIRECRAWL_BASE_URL")
	_ = v.BindEnv("pipeline.output_dir", "PODCAST_OUTPUT_DIR")
	_ = v.BindEnv("pipeline.max_script_chars", "PODCAST_MAX_SCRIPT_CHARS")
	_ = v.BindEnv("pipeline.length_policy", "PODCAST_LENGTH_POLICY")
	_ = v.BindEnv("pipeline.extract_timeout", "PODCAST_EXTRACT_TIMEOUT")
	_ = v.BindEnv("pipeline.generate_timeout", "PODCAST_GENERATE_TIMEOUT")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("ratelimit.podcasts_per_hour", 10)

	// Provider defaults
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.voice_id", "EXAVITQu4vr4xnSDxMaL")
	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("elevenlabs.output_format", "mp3_44100_128")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev")

	// Pipeline defaults
	v.SetDefault("pipeline.output_dir", "podcasts")
	v.SetDefault("pipeline.max_script_chars", 2000)
	v.SetDefault("pipeline.length_policy", LengthPolicyTruncate)
	v.SetDefault("pipeline.extract_timeout", 60*time.Second)
	v.SetDefault("pipeline.generate_timeout", 120*time.Second)

	v.SetDefault("database.max_open_conns", 5)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("server.port"),
			Env:       v.GetString("server.env"),
			LogLevel:  v.GetString("server.log_level"),
			LogFormat: v.GetString("server.log_format"),
			APIDomain: v.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Enabled:   v.GetBool("auth.enabled"),
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		RateLimit: RateLimitConfig{
			PodcastsPerHour: v.GetInt("ratelimit.podcasts_per_hour"),
		},
		Gemini: GeminiConfig{
			APIKey:      v.GetString("gemini.api_key"),
			BaseURL:     v.GetString("gemini.base_url"),
			Model:       v.GetString("gemini.model"),
			Temperature: v.GetFloat64("gemini.temperature"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:       v.GetString("elevenlabs.api_key"),
			BaseURL:      v.GetString("elevenlabs.base_url"),
			VoiceID:      v.GetString("elevenlabs.voice_id"),
			ModelID:      v.GetString("elevenlabs.model_id"),
			OutputFormat: v.GetString("elevenlabs.output_format"),
		},
		Firecrawl: FirecrawlConfig{
			APIKey:  v.GetString("firecrawl.api_key"),
			BaseURL: v.GetString("firecrawl.base_url"),
		},
		Pipeline: PipelineConfig{
			OutputDir:       v.GetString("pipeline.output_dir"),
			MaxScriptChars:  v.GetInt("pipeline.max_script_chars"),
			LengthPolicy:    strings.ToLower(v.GetString("pipeline.length_policy")),
			ExtractTimeout:  v.GetDuration("pipeline.extract_timeout"),
			GenerateTimeout: v.GetDuration("pipeline.generate_timeout"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
	}

	if cfg.Pipeline.LengthPolicy != LengthPolicyReject {
		cfg.Pipeline.LengthPolicy = LengthPolicyTruncate
	}

	return cfg, nil
}
