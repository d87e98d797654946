// internal/workers/discovery/clear-selection/handler.go
package clearselection

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"movienight-workers/internal/common/errors"
	"movienight-workers/internal/common/logger"
	"movienight-workers/internal/common/metrics"
	"movienight-workers/internal/common/validation"
	"movienight-workers/internal/selection"
	"movienight-workers/pkg/registry"
)

const TaskType = registry.TaskClearSelection

type Handler struct {
	config       *Config
	sessions     *selection.Sessions
	registry     *registry.ActivityRegistry
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sessions *selection.Sessions, reg *registry.ActivityRegistry, log logger.Logger) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     sessions,
		registry:     reg,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(input)
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

func (h *Handler) execute(input *Input) (*Output, error) {
	if input.Owner == "" {
		return nil, errors.NewInvalidInputError("owner is required")
	}

	categories := selection.Categories()
	if input.Category != "" {
		d, ok := selection.Lookup(input.Category)
		if !ok {
			return nil, errors.NewInvalidCategoryError(input.Category)
		}
		categories = []selection.Category{d.Category}
	}

	out := &Output{Owner: input.Owner, Cleared: []ClearedTitle{}}
	for _, c := range categories {
		if res := h.sessions.Current(input.Owner, c); res != nil {
			cleared := ClearedTitle{Category: string(c), RunID: res.RunID}
			if res.Item != nil {
				cleared.ID = res.Item.ID
			}
			out.Cleared = append(out.Cleared, cleared)
		}
		h.sessions.Clear(input.Owner, c)
	}
	if input.Category == "" {
		h.sessions.Release(input.Owner)
	}

	h.logger.Info("selection cleared", map[string]interface{}{
		"owner":    input.Owner,
		"category": input.Category,
		"cleared":  len(out.Cleared),
	})
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(input *Input) (*Output, error) {
	return h.execute(input)
}
