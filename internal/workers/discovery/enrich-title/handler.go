// internal/workers/discovery/enrich-title/handler.go
package enrichtitle

import (
	"context"
	"encoding/json"
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

const TaskType = registry.TaskEnrichTitle

// Handler enriches a title the process already knows the id of.
type Handler struct {
	config       *Config
	engine       *selection.Engine
	schema       map[string]interface{}
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine *selection.Engine, reg *registry.ActivityRegistry, obs *observability.Observability, log logger.Logger) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		schema:       reg.InputSchemaFor(TaskType),
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

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, output.Status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), output.Status)
	h.obs.RecordSelection(ctx, output.Category, output.Status, 0)
	for _, d := range output.Degradations {
		h.obs.RecordDegradation(ctx, output.Category, d.Code)
	}
}

// parseInput checks the variables against the registry schema first, so a
// wrongly typed field is reported by the schema and not by the decoder.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError("variables are not a JSON object: " + err.Error())
	}
	result, err := validation.ValidateInput(variables, h.schema)
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
	if input.ID <= 0 {
		return nil, errors.NewInvalidInputError("id must be positive")
	}
	res, err := h.engine.EnrichByID(ctx, selection.Category(input.Category), input.ID, selection.Config{})
	if err != nil {
		return nil, err
	}

	providers := res.ItemProviders()
	if providers == nil {
		providers = []selection.Provider{}
	}
	return &Output{
		Status:       string(res.Status),
		RunID:        res.RunID,
		Category:     string(res.Category),
		Item:         res.Item,
		AgeWarning:   res.AgeWarning,
		Rating:       res.Certification,
		RatingLabel:  res.RatingLabel,
		Providers:    providers,
		Degradations: res.Degradations,
	}, nil
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
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
