package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blogcaster/api/internal/client"
	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/content"
	"github.com/blogcaster/api/internal/model"
	applog "github.com/blogcaster/api/internal/platform/logger"
	"github.com/blogcaster/api/internal/service"
	"github.com/blogcaster/api/internal/storage"
)

func main() {
	var (
		pageURL   = flag.String("url", "", "Blog post URL to turn into a podcast")
		outputDir = flag.String("out", "", "Output directory (defaults to PODCAST_OUTPUT_DIR or podcasts)")
		policy    = flag.String("length-policy", "", "Over-long script handling: truncate or reject")
		logLevel  = flag.String("log-level", "warn", "Log level")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Pipeline.OutputDir = *outputDir
	}
	if *policy == config.LengthPolicyReject || *policy == config.LengthPolicyTruncate {
		cfg.Pipeline.LengthPolicy = *policy
	}

	log := applog.New(*logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	podcastService := service.NewPodcastService(
		cfg.Credentials(),
		&cfg.Pipeline,
		content.NewExtractor(client.NewFirecrawlClient(&cfg.Firecrawl)),
		service.NewScriptService(client.NewGeminiClient(&cfg.Gemini), &cfg.Pipeline),
		client.NewElevenLabsClient(&cfg.ElevenLabs),
		storage.NewOSFileStore(cfg.Pipeline.OutputDir),
		service.WithLogger(log),
	)

	start := time.Now()
	result, err := podcastService.GenerateWithProgress(ctx, &model.PodcastRequest{URL: *pageURL}, func(stage string, progress int) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", progress, stage)
	})
	if err != nil {
		var msg string
		if kind := service.KindOf(err); kind != "" {
			msg = fmt.Sprintf("%s: ", kind)
		}
		fmt.Fprintf(os.Stderr, "%s%s\n", msg, userMessage(err))
		os.Exit(1)
	}

	if result.Script.Truncated {
		fmt.Fprintf(os.Stderr, "Script shortened to %d characters\n", result.Script.Length)
	}
	fmt.Fprintf(os.Stderr, "Done in %s (%d bytes)\n", time.Since(start).Round(time.Millisecond), result.Artifact.Size)
	fmt.Println(result.Artifact.FilePath)
}

func userMessage(err error) string {
	var pe *service.PipelineError
	if errors.As(err, &pe) {
		return pe.UserMessage()
	}
	return err.Error()
}
