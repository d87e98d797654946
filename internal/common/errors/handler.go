// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns a failed selection job into either a Zeebe fail command
// (retryable codes with retries left) or a BPMN error the process can catch.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	h.logError(job, stdErr, bpmnErr)

	vars := ""
	if encoded, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		vars = string(encoded)
	}

	if bpmnErr.Retries > 0 && job.Retries > 0 {
		h.fail(ctx, client, job, bpmnErr, stdErr.Code, vars)
		return
	}
	h.throw(ctx, client, job, bpmnErr, vars)
}

// Normalize returns err as a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// RetryBackoff is how long the broker waits before handing a failed job out
// again. Rate limited calls back off the longest.
func RetryBackoff(code ErrorCode) time.Duration {
	switch code {
	case ErrCodeMetadataRateLimited:
		return 30 * time.Second
	case ErrCodeMetadataTimeout, ErrCodeDiscoveryUnavailable:
		return 10 * time.Second
	case ErrCodeCacheUnavailable:
		return 5 * time.Second
	}
	return 2 * time.Second
}

// remainingRetries caps the configured retries by what the job has left.
func remainingRetries(job entities.Job, configured int) int32 {
	left := int(job.Retries) - 1
	if configured < left {
		left = configured
	}
	if left < 0 {
		left = 0
	}
	return int32(left)
}

func (h *ErrorHandler) fail(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, code ErrorCode, vars string) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(remainingRetries(job, bpmnErr.Retries)).
		RetryBackoff(RetryBackoff(code)).
		ErrorMessage(bpmnErr.Message)

	if vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			h.report(job, "fail", func() error { _, err := withVars.Send(ctx); return err })
			return
		}
	}
	h.report(job, "fail", func() error { _, err := cmd.Send(ctx); return err })
}

func (h *ErrorHandler) throw(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, vars string) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			h.report(job, "throw", func() error { _, err := withVars.Send(ctx); return err })
			return
		}
	}
	h.report(job, "throw", func() error { _, err := cmd.Send(ctx); return err })
}

func (h *ErrorHandler) report(job entities.Job, command string, send func() error) {
	if err := send(); err != nil {
		h.logger.Error("failed to send job command", map[string]interface{}{
			"jobKey":  job.Key,
			"command": command,
			"error":   err.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":             job.Key,
		"jobType":            job.Type,
		"processInstanceKey": job.ProcessInstanceKey,
		"errorCode":          string(stdErr.Code),
		"bpmnErrorCode":      bpmnErr.Code,
		"message":            bpmnErr.Message,
		"details":            stdErr.Details,
		"retryable":          stdErr.Retryable,
		"retries":            bpmnErr.Retries,
		"jobRetriesLeft":     job.Retries,
		"errorCategory":      GetErrorCategory(stdErr.Code),
	})
}
