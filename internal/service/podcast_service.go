package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/model"
)

// ContentExtractor turns a URL into article text
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (*model.ExtractedContent, error)
}

// ScriptComposer writes a spoken script
type ScriptComposer interface {
	Compose(ctx context.Context, content *model.ExtractedContent) (*model.PodcastScript, error)
}

// VoiceSynthesizer renders a script to zero or more audio payloads
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]model.SynthesizedAudio, error)
}

// ArtifactStore persists audio bytes under a unique name
type ArtifactStore interface {
	Save(data []byte) (*model.PodcastArtifact, error)
}

// ArtifactMirror copies a finished file to remote storage
type ArtifactMirror interface {
	Mirror(ctx context.Context, fileName string, data []byte, contentType string) (string, error)
}

// EpisodeRecorder keeps a catalog of generated episodes
type EpisodeRecorder interface {
	Record(ctx context.Context, ep *model.Episode) error
}

// PipelineMetrics receives run and stage observations
type PipelineMetrics interface {
	RunStarted()
	RunSucceeded(audioBytes int)
	RunFailed(kind string)
	ObserveStage(stage string, d time.Duration)
	ObserveScript(length int, truncated bool)
}

// ProgressFunc is called when the pipeline enters a stage
type ProgressFunc func(stage string, progress int)

// stageProgress is the percentage reported when a stage starts
var stageProgress = map[string]int{
	StageExtract:    10,
	StageCompose:    35,
	StageSynthesize: 60,
	StagePersist:    85,
}

// PodcastService runs the blog-to-podcast pipeline
type PodcastService struct {
	credentials config.Credentials
	extractor   ContentExtractor
	composer    ScriptComposer
	synthesizer VoiceSynthesizer
	store       ArtifactStore

	mirror  ArtifactMirror
	catalog EpisodeRecorder
	metrics PipelineMetrics

	maxScriptChars int
	lengthPolicy   string

	extractTimeout  time.Duration
	generateTimeout time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// PodcastOption configures optional collaborators
type PodcastOption func(*PodcastService)

// WithMirror uploads every artifact to remote storage after it is written
func WithMirror(m ArtifactMirror) PodcastOption {
	return func(s *PodcastService) { s.mirror = m }
}

// WithCatalog records every artifact as an episode
func WithCatalog(c EpisodeRecorder) PodcastOption {
	return func(s *PodcastService) { s.catalog = c }
}

// WithMetrics reports pipeline observations
func WithMetrics(m PipelineMetrics) PodcastOption {
	return func(s *PodcastService) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) PodcastOption {
	return func(s *PodcastService) { s.logger = l }
}

// NewPodcastService creates the pipeline orchestrator
func NewPodcastService(
	creds config.Credentials,
	cfg *config.PipelineConfig,
	extractor ContentExtractor,
	composer ScriptComposer,
	synthesizer VoiceSynthesizer,
	store ArtifactStore,
	opts ...PodcastOption,
) *PodcastService {
	maxChars, policy := scriptBudget(cfg)
	s := &PodcastService{
		credentials:     creds,
		extractor:       extractor,
		composer:        composer,
		synthesizer:     synthesizer,
		store:           store,
		maxScriptChars:  maxChars,
		lengthPolicy:    policy,
		extractTimeout:  cfg.ExtractTimeout,
		generateTimeout: cfg.GenerateTimeout,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether every required credential is present
func (s *PodcastService) Ready() bool {
	return s.credentials.Complete()
}

// Generate runs the pipeline once. Any returned error is a *PipelineError.
func (s *PodcastService) Generate(ctx context.Context, req *model.PodcastRequest) (*model.PodcastResult, error) {
	return s.GenerateWithProgress(ctx, req, nil)
}

// GenerateWithProgress runs the pipeline, reporting each stage to progress
func (s *PodcastService) GenerateWithProgress(ctx context.Context, req *model.PodcastRequest, progress ProgressFunc) (*model.PodcastResult, error) {
	pageURL := strings.TrimSpace(req.URL)
	log := s.logger.With("url", pageURL)

	if s.metrics != nil {
		s.metrics.RunStarted()
	}

	result, perr := s.run(ctx, pageURL, log, progress)
	if perr != nil {
		log.Error("podcast generation failed",
			"kind", perr.Kind,
			"stage", perr.Stage,
			"error", perr.Err,
		)
		if s.metrics != nil {
			s.metrics.RunFailed(string(perr.Kind))
		}
		return nil, perr
	}

	if s.metrics != nil {
		s.metrics.RunSucceeded(int(result.Artifact.Size))
	}
	log.Info("podcast generated",
		"file", result.Artifact.FilePath,
		"bytes", result.Artifact.Size,
		"script_chars", result.Script.Length,
	)
	return result, nil
}

func (s *PodcastService) run(ctx context.Context, pageURL string, log *slog.Logger, progress ProgressFunc) (*model.PodcastResult, *PipelineError) {
	if missing := s.credentials.Missing(); len(missing) > 0 {
		return nil, &PipelineError{
			Kind:    KindMissingCredentials,
			Stage:   StageCredentials,
			Err:     fmt.Errorf("missing %s", strings.Join(missing, ", ")),
			message: s.credentials.Warning(),
		}
	}

	if err := ValidateURL(pageURL); err != nil {
		return nil, newPipelineError(KindInvalidInput, StageValidate, err)
	}

	// Extract
	s.enter(StageExtract, progress)
	start := time.Now()
	content, err := withTimeout(ctx, s.extractTimeout, func(ctx context.Context) (*model.ExtractedContent, error) {
		return s.extractor.Extract(ctx, pageURL)
	})
	s.observe(StageExtract, start)
	if err != nil {
		return nil, classify(KindExtractionFailed, StageExtract, err)
	}
	if strings.TrimSpace(content.RawText) == "" {
		return nil, newPipelineError(KindExtractionFailed, StageExtract, ErrEmptyArticle)
	}
	log.Debug("content extracted", "chars", len([]rune(content.RawText)), "title", content.Title)

	// Compose
	s.enter(StageCompose, progress)
	start = time.Now()
	script, err := withTimeout(ctx, s.generateTimeout, func(ctx context.Context) (*model.PodcastScript, error) {
		return s.composer.Compose(ctx, content)
	})
	s.observe(StageCompose, start)
	if err != nil {
		return nil, classify(KindGenerationFailed, StageCompose, err)
	}

	// Guard the budget before anything reaches the synthesizer
	composedLength := utf8.RuneCountInString(script.Text)
	script, err = s.fitScript(script)
	if err != nil {
		return nil, newPipelineError(KindScriptTooLong, StageGuard, err)
	}
	if script.Truncated {
		log.Warn("script exceeded character budget, truncated",
			"composed_chars", composedLength,
			"final_chars", script.Length,
		)
	}
	if refs := VisualReferences(script.Text); len(refs) > 0 {
		log.Warn("script mentions visual content", "phrases", refs)
	}
	if s.metrics != nil {
		s.metrics.ObserveScript(script.Length, script.Truncated)
	}

	// Synthesize
	s.enter(StageSynthesize, progress)
	start = time.Now()
	audio, err := withTimeout(ctx, s.generateTimeout, func(ctx context.Context) ([]model.SynthesizedAudio, error) {
		return s.synthesizer.Synthesize(ctx, script.Text)
	})
	s.observe(StageSynthesize, start)
	if err != nil {
		return nil, classify(KindGenerationFailed, StageSynthesize, err)
	}
	if len(audio) == 0 {
		return nil, newPipelineError(KindNoAudioProduced, StageSynthesize, errors.New("synthesizer returned no audio"))
	}
	if len(audio) > 1 {
		log.Debug("synthesizer returned multiple renderings, using the first", "count", len(audio))
	}

	data, err := base64.StdEncoding.DecodeString(audio[0].Base64Audio)
	if err != nil {
		return nil, newPipelineError(KindGenerationFailed, StageSynthesize, fmt.Errorf("failed to decode audio: %w", err))
	}
	if len(data) == 0 {
		return nil, newPipelineError(KindNoAudioProduced, StageSynthesize, errors.New("decoded audio is empty"))
	}
	if enc := audio[0].Encoding; !wavEncoding(enc) {
		log.Warn("audio encoding does not match file extension, writing bytes as received",
			"encoding", enc,
			"extension", model.AudioExtension,
		)
	}

	// Persist
	s.enter(StagePersist, progress)
	start = time.Now()
	artifact, err := s.store.Save(data)
	s.observe(StagePersist, start)
	if err != nil {
		return nil, newPipelineError(KindPersistFailed, StagePersist, err)
	}

	result := &model.PodcastResult{
		SourceURL: pageURL,
		Title:     content.Title,
		Script:    *script,
		Artifact:  *artifact,
		CreatedAt: s.now().UTC(),
	}

	s.mirrorArtifact(ctx, result, log)
	s.recordEpisode(ctx, result, log)

	return result, nil
}

// fitScript measures the script text itself, whatever length the composer
// reported. Under the truncate policy an oversized script is cut down, under
// reject it fails with ErrScriptTooLong.
func (s *PodcastService) fitScript(script *model.PodcastScript) (*model.PodcastScript, error) {
	n := utf8.RuneCountInString(script.Text)
	if n <= s.maxScriptChars {
		return &model.PodcastScript{Text: script.Text, Length: n, Truncated: script.Truncated}, nil
	}

	if s.lengthPolicy == config.LengthPolicyReject {
		return nil, fmt.Errorf("%w: %d > %d", ErrScriptTooLong, n, s.maxScriptChars)
	}

	text := TruncateScript(script.Text, s.maxScriptChars)
	return &model.PodcastScript{
		Text:      text,
		Length:    utf8.RuneCountInString(text),
		Truncated: true,
	}, nil
}

func (s *PodcastService) mirrorArtifact(ctx context.Context, result *model.PodcastResult, log *slog.Logger) {
	if s.mirror == nil {
		return
	}

	mctx, cancel := s.stageContext(ctx, s.generateTimeout)
	defer cancel()

	mirrorURL, err := s.mirror.Mirror(mctx, result.Artifact.FileName, result.Artifact.AudioBytes, model.AudioMimeType)
	if err != nil {
		log.Warn("failed to mirror podcast", "file", result.Artifact.FileName, "error", err)
		return
	}
	result.Artifact.MirrorURL = mirrorURL
}

func (s *PodcastService) recordEpisode(ctx context.Context, result *model.PodcastResult, log *slog.Logger) {
	if s.catalog == nil {
		return
	}

	cctx, cancel := s.stageContext(ctx, s.extractTimeout)
	defer cancel()

	ep := &model.Episode{
		SourceURL:    result.SourceURL,
		Title:        result.Title,
		FileName:     result.Artifact.FileName,
		ScriptLength: result.Script.Length,
		SizeBytes:    result.Artifact.Size,
		CreatedAt:    result.CreatedAt,
	}
	if err := s.catalog.Record(cctx, ep); err != nil {
		log.Warn("failed to record episode", "file", ep.FileName, "error", err)
	}
}

func (s *PodcastService) enter(stage string, progress ProgressFunc) {
	if progress != nil {
		progress(stage, stageProgress[stage])
	}
}

func (s *PodcastService) observe(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, time.Since(start))
	}
}

func (s *PodcastService) stageContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// withTimeout runs fn under its own deadline. A zero timeout means none.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return fn(ctx)
}

// classify maps a stage error to Timeout when it was caused by a deadline
func classify(kind ErrorKind, stage string, err error) *PipelineError {
	if isTimeout(err) {
		return newPipelineError(KindTimeout, stage, err)
	}
	return newPipelineError(kind, stage, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// wavEncoding reports whether a synthesizer output format is a WAV container.
// An empty format is unknown and trusted.
func wavEncoding(format string) bool {
	return format == "" || strings.HasPrefix(strings.ToLower(format), "wav")
}

// ValidateURL accepts absolute http(s) addresses only
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url does not parse: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) address")
	}
	return nil
}
