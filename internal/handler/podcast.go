package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/model"
	"github.com/blogcaster/api/internal/service"
	"github.com/blogcaster/api/internal/storage"
	"github.com/blogcaster/api/pkg/response"
)

// PodcastGenerator runs one blocking pipeline invocation
type PodcastGenerator interface {
	Generate(ctx context.Context, req *model.PodcastRequest) (*model.PodcastResult, error)
}

// JobQueue queues and tracks podcast jobs
type JobQueue interface {
	StartPodcast(ctx context.Context, req *model.PodcastRequest) (*model.PodcastStartResponse, error)
	GetStatus(ctx context.Context, jobID string) (*model.PodcastStatusResponse, error)
	GetResult(ctx context.Context, jobID string) (*model.PodcastResult, error)
}

// FileReader reads persisted podcast files
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// EpisodeLister lists catalogued episodes
type EpisodeLister interface {
	List(ctx context.Context, limit int) ([]model.Episode, error)
}

type PodcastHandler struct {
	generator   PodcastGenerator
	jobs        JobQueue
	files       FileReader
	episodes    EpisodeLister
	credentials config.Credentials
	validator   *validator.Validate
}

func NewPodcastHandler(
	generator PodcastGenerator,
	jobs JobQueue,
	files FileReader,
	episodes EpisodeLister,
	creds config.Credentials,
	v *validator.Validate,
) *PodcastHandler {
	return &PodcastHandler{
		generator:   generator,
		jobs:        jobs,
		files:       files,
		episodes:    episodes,
		credentials: creds,
		validator:   v,
	}
}

// Generate handles POST /api/podcasts/generate
// @Summary      Generate podcast
// @Description  Run the full pipeline and wait for the audio file
// @Tags         Podcasts
// @Accept       json
// @Produce      json
// @Param        request body model.PodcastRequest true "Blog URL"
// @Success      200 {object} model.PodcastResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Failure      504 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/podcasts/generate [post]
func (h *PodcastHandler) Generate(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}

	result, err := h.generator.Generate(c.UserContext(), req)
	if err != nil {
		return pipelineError(c, err)
	}

	return response.OK(c, toResponse(result))
}

// Start handles POST /api/podcasts
// @Summary      Queue podcast generation
// @Description  Queue a pipeline run and return a job ID to poll or watch
// @Tags         Podcasts
// @Accept       json
// @Produce      json
// @Param        request body model.PodcastRequest true "Blog URL"
// @Success      202 {object} model.PodcastStartResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/podcasts [post]
func (h *PodcastHandler) Start(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}

	// Fail before queueing anything the worker could not run
	if !h.credentials.Complete() {
		return response.Error(c, fiber.StatusServiceUnavailable, response.CodeMissingCredentials, h.credentials.Warning(), h.credentials.Missing())
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := service.ValidateURL(req.URL); err != nil {
		return response.Error(c, fiber.StatusBadRequest, response.CodeInvalidInput, "Please enter a valid URL.", nil)
	}

	result, err := h.jobs.StartPodcast(c.UserContext(), req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/podcasts/status/:jobId
// @Summary      Get podcast job status
// @Tags         Podcasts
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.PodcastStatusResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/podcasts/status/{jobId} [get]
func (h *PodcastHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobs.GetStatus(c.UserContext(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Result handles GET /api/podcasts/result/:jobId
// @Summary      Get podcast job result
// @Tags         Podcasts
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.PodcastResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/podcasts/result/{jobId} [get]
func (h *PodcastHandler) Result(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobs.GetResult(c.UserContext(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		if errors.Is(err, service.ErrJobNotCompleted) {
			return response.Error(c, fiber.StatusConflict, response.CodeJobNotCompleted, "Job not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, toResponse(result))
}

// File handles GET /api/podcasts/files/:name
// @Summary      Play or download a podcast
// @Description  Serves the audio inline; with download=1 as an attachment named generated_podcast.wav
// @Tags         Podcasts
// @Produce      audio/wav
// @Param        name path string true "File name"
// @Param        download query bool false "Serve as attachment"
// @Success      200 {file} binary
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /api/podcasts/files/{name} [get]
func (h *PodcastHandler) File(c *fiber.Ctx) error {
	name := c.Params("name")

	data, err := h.files.ReadFile(name)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return response.ValidationError(c, "Invalid file name", nil)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return response.NotFound(c, "Podcast not found")
		}
		return response.ServiceError(c, "Failed to read podcast")
	}

	c.Set(fiber.HeaderContentType, model.AudioMimeType)
	if c.QueryBool("download") {
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+model.DownloadDisplayName+`"`)
	} else {
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+name+`"`)
	}
	return c.Send(data)
}

// Episodes handles GET /api/podcasts/episodes
// @Summary      List generated episodes
// @Tags         Podcasts
// @Produce      json
// @Param        limit query int false "Max episodes (default 20, max 100)"
// @Success      200 {array} model.Episode
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/podcasts/episodes [get]
func (h *PodcastHandler) Episodes(c *fiber.Ctx) error {
	if h.episodes == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, response.CodeServiceError, "Episode catalog not configured", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	episodes, err := h.episodes.List(c.UserContext(), limit)
	if err != nil {
		return response.ServiceError(c, "Failed to list episodes")
	}

	return response.OK(c, episodes)
}

// parseRequest returns a nil request when a response was already written
func (h *PodcastHandler) parseRequest(c *fiber.Ctx) (*model.PodcastRequest, error) {
	var req model.PodcastRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return nil, response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return &req, nil
}

func toResponse(result *model.PodcastResult) *model.PodcastResponse {
	audioURL := "/api/podcasts/files/" + result.Artifact.FileName
	return &model.PodcastResponse{
		PodcastResult: *result,
		AudioURL:      audioURL,
		DownloadURL:   audioURL + "?download=1",
		MimeType:      model.AudioMimeType,
	}
}

var kindStatus = map[service.ErrorKind]int{
	service.KindInvalidInput:       fiber.StatusBadRequest,
	service.KindMissingCredentials: fiber.StatusServiceUnavailable,
	service.KindExtractionFailed:   fiber.StatusBadGateway,
	service.KindGenerationFailed:   fiber.StatusBadGateway,
	service.KindNoAudioProduced:    fiber.StatusBadGateway,
	service.KindScriptTooLong:      fiber.StatusUnprocessableEntity,
	service.KindTimeout:            fiber.StatusGatewayTimeout,
	service.KindPersistFailed:      fiber.StatusInternalServerError,
}

// pipelineError writes a classified failure. Causes stay in the logs.
func pipelineError(c *fiber.Ctx, err error) error {
	var pe *service.PipelineError
	if !errors.As(err, &pe) {
		return response.ServiceError(c, "An error occurred while generating the podcast.")
	}

	status, ok := kindStatus[pe.Kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return response.Error(c, status, string(pe.Kind), pe.UserMessage(), nil)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
