// internal/workers/discovery/pick-random-title/handler.go
package pickrandomtitle

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"movienight-workers/internal/common/errors"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/common/observability"
	"movienight-workers/internal/common/validation"
	"movienight-workers/internal/selection"
	"movienight-workers/pkg/registry"
)

const TaskType = registry.TaskPickRandomTitle

type Handler struct {
	config       *Config
	sessions     *selection.Sessions
	registry     *registry.ActivityRegistry
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sessions *selection.Sessions, reg *registry.ActivityRegistry, obs *observability.Observability, log logger.Logger) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     sessions,
		registry:     reg,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}
	ownerFromJob := input.Owner == ""
	if ownerFromJob {
		input.Owner = strconv.FormatInt(job.ProcessInstanceKey, 10)
	}

	output, err := h.execute(ctx, input)
	if ownerFromJob {
		h.sessions.Release(input.Owner)
	}
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, output.Status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), output.Status)
	h.obs.RecordSelection(ctx, output.Category, output.Status, output.Attempts)
	for _, d := range output.Degradations {
		h.obs.RecordDegradation(ctx, output.Category, d.Code)
	}
}

// parseInput validates the job variables against the registry schema before
// decoding them.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError("variables are not a JSON object: " + err.Error())
	}
	result, err := validation.ValidateInput(variables, h.registry.InputSchemaFor(TaskType))
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError("parse input: " + err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	d, ok := selection.Lookup(input.Category)
	if !ok {
		return nil, errors.NewInvalidCategoryError(input.Category)
	}
	if a, ok := h.registry.Find(TaskType); ok && !a.ServesCategory(string(d.Category)) {
		return nil, errors.NewInvalidCategoryError(input.Category)
	}

	// choosing a category discards the owner's selections in the others
	h.sessions.Switch(input.Owner, d.Category)

	res, err := h.sessions.Select(ctx, input.Owner, d.Category, selection.Config{
		PagesToSearch:    input.PagesToSearch,
		MaxAttempts:      input.MaxAttempts,
		RequireStreaming: input.RequireStreaming,
		ProviderIDs:      input.ProviderIDs,
	})
	switch {
	case stderrors.Is(err, selection.ErrSuperseded):
		h.logger.Info("selection superseded", map[string]interface{}{
			"owner":    input.Owner,
			"category": string(d.Category),
		})
		return &Output{
			Status:    StatusSuperseded,
			Category:  string(d.Category),
			Providers: []selection.Provider{},
		}, nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.NewMetadataTimeoutError("selection", err)
	case err != nil:
		return nil, err
	}

	return outputFromResult(res), nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "error")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "error")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
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
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"status":   output.Status,
		"category": output.Category,
		"attempts": output.Attempts,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
