package e2e

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/blogcaster/api/internal/auth"
	"github.com/blogcaster/api/internal/client"
	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/content"
	"github.com/blogcaster/api/internal/handler"
	"github.com/blogcaster/api/internal/metrics"
	"github.com/blogcaster/api/internal/middleware"
	"github.com/blogcaster/api/internal/service"
	"github.com/blogcaster/api/internal/storage"
	ws "github.com/blogcaster/api/internal/websocket"
	"github.com/blogcaster/api/internal/worker"
)

const testJWTSecret = "test-secret-for-e2e"

const articleHTML = `<html><head><title>Ignored</title></head><body>
<nav>Home | About</nav>
<article>
<h1>Why Small Services Win</h1>
<p>Small services are easier to reason about because each one owns a single job and a single data store.</p>
<figure><img src="diagram.png"><figcaption>Figure 1: the architecture diagram</figcaption></figure>
<p>Teams that split their systems this way deploy more often and roll back less, since every change touches less code.</p>
<p>The tradeoff is operational: more processes to watch, more network hops, and more places for latency to hide.</p>
</article>
<footer>Copyright</footer>
</body></html>`

const scriptText = "Welcome back to the show. Today we are talking about why small services win. " +
	"Each one owns a single job, which makes teams faster and rollbacks rarer. " +
	"The price is more moving parts to watch. Thanks for listening."

// wavBytes is a minimal RIFF header followed by silence
var wavBytes = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 64)...)

// providers fakes Firecrawl, Gemini and ElevenLabs behind one server
type providers struct {
	mu      sync.Mutex
	audio   string
	scrapes int
}

func newProviders(t *testing.T) (*providers, *httptest.Server) {
	t.Helper()
	p := &providers{audio: base64.StdEncoding.EncodeToString(wavBytes)}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/scrape", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.scrapes++
		p.mu.Unlock()

		var req client.ScrapeRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"html":     articleHTML,
				"markdown": "# Why Small Services Win",
				"metadata": map[string]interface{}{
					"title":      "Why Small Services Win",
					"sourceURL":  req.URL,
					"statusCode": 200,
				},
			},
		})
	})
	mux.HandleFunc("/models/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []interface{}{map[string]string{"text": scriptText}},
					},
				},
			},
		})
	})
	mux.HandleFunc("/v1/text-to-speech/", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		audio := p.audio
		p.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"audio_base64": audio})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return p, srv
}

func (p *providers) scrapeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrapes
}

func (p *providers) setAudio(b64 string) {
	p.mu.Lock()
	p.audio = b64
	p.mu.Unlock()
}

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	providers *providers
	jobs      *service.JobService
	worker    *worker.PodcastWorker
	store     *storage.FileStore
}

// setupApp wires the same stack as cmd/server against fake providers, an
// in-memory filesystem and a local Redis on DB 15.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	p, srv := newProviders(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	pipeline := config.PipelineConfig{
		OutputDir:       "podcasts",
		MaxScriptChars:  service.DefaultMaxScriptChars,
		LengthPolicy:    config.LengthPolicyTruncate,
		ExtractTimeout:  5 * time.Second,
		GenerateTimeout: 5 * time.Second,
	}
	creds := config.Credentials{GeminiAPIKey: "g", ElevenLabsAPIKey: "e", FirecrawlAPIKey: "f"}

	firecrawl := client.NewFirecrawlClient(&config.FirecrawlConfig{APIKey: "f", BaseURL: srv.URL})
	gemini := client.NewGeminiClient(&config.GeminiConfig{APIKey: "g", BaseURL: srv.URL, Model: "gemini-test", Temperature: 0.7})
	elevenLabs := client.NewElevenLabsClient(&config.ElevenLabsConfig{
		APIKey:       "e",
		BaseURL:      srv.URL,
		VoiceID:      "voice-1",
		ModelID:      "eleven_multilingual_v2",
		OutputFormat: "pcm_16000",
	})

	store := storage.NewFileStore(afero.NewMemMapFs(), pipeline.OutputDir)
	podcastService := service.NewPodcastService(
		creds,
		&pipeline,
		content.NewExtractor(firecrawl),
		service.NewScriptService(gemini, &pipeline),
		elevenLabs,
		store,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	)
	jobService := service.NewJobService(redisClient, asynqClient)

	hub := ws.NewHub(log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	t.Cleanup(stopHub)
	go hub.Run(hubCtx)

	podcastHandler := handler.NewPodcastHandler(podcastService, jobService, store, nil, creds, validator.New())
	healthHandler := handler.NewHealthHandler(creds, handler.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}), nil, false, true)

	authMiddleware := middleware.NewAuthMiddleware(true, testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	app := fiber.New()
	app.Get("/health", healthHandler.Check)
	app.Get("/api/podcasts/files/:name", podcastHandler.File)

	api := app.Group("/api", authMiddleware.Authenticate())

	// Use very high rate limits so tests don't get blocked
	podcasts := api.Group("/podcasts")
	podcasts.Post("/", rateLimiter.PodcastLimit(10000), podcastHandler.Start)
	podcasts.Post("/generate", rateLimiter.PodcastLimit(10000), podcastHandler.Generate)
	podcasts.Get("/status/:jobId", podcastHandler.Status)
	podcasts.Get("/result/:jobId", podcastHandler.Result)

	return &testApp{
		app:       app,
		providers: p,
		jobs:      jobService,
		worker:    worker.NewPodcastWorker(podcastService, jobService, hub, log, worker.WithArtifactRemover(store)),
		store:     store,
	}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.IssueToken(testJWTSecret, "test-user-123", "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t),
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// errorCode extracts error.code from an error response.
func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("no error object in %v", body)
	}
	code, _ := e["code"].(string)
	return code
}
