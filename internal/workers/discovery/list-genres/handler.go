// internal/workers/discovery/list-genres/handler.go
package listgenres

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"movienight-workers/internal/common/errors"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/selection"
	"movienight-workers/internal/tmdb"
	"movienight-workers/pkg/registry"
)

const TaskType = registry.TaskListGenres

// GenreSource is satisfied by *tmdb.Client.
type GenreSource interface {
	Genres(ctx context.Context, media tmdb.MediaType) (map[int]string, error)
}

type Handler struct {
	config       *Config
	genres       GenreSource
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, genres GenreSource, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		genres:       genres,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidInputError("parse input: "+err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	d, ok := selection.Lookup(input.Category)
	if !ok {
		return nil, errors.NewInvalidCategoryError(input.Category)
	}

	start := time.Now()
	names, err := h.genres.Genres(ctx, d.Media)
	if err != nil {
		return nil, tmdb.ToStandardError(err)
	}

	out := &Output{Category: string(d.Category), Genres: make(map[string]string, len(names))}
	for id, name := range names {
		out.Genres[strconv.Itoa(id)] = name
	}
	h.logger.Debug("genres resolved", map[string]interface{}{
		"category": string(d.Category),
		"count":    len(out.Genres),
		"duration": time.Since(start).String(),
	})
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
