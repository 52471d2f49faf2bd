// internal/workers/access/validate-access/handler.go
package validateaccess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "load-analytics-engine/internal/common/errors"
	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/common/metrics"
	"load-analytics-engine/internal/engine/access"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "validate-access"
)

var (
	ErrMissingUserID = errors.New("MISSING_USER_ID")
)

type Handler struct {
	config *Config
	gate   *access.Gate
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	opts := []access.GateOption{access.WithTrialDays(config.TrialDays)}
	if redisClient != nil {
		opts = append(opts, access.WithVerdictCache(redisClient, config.CacheTTL))
	}
	gate := access.NewGate(access.NewSQLStore(db), log, opts...)
	return NewHandlerWithGate(config, gate, log)
}

// NewHandlerWithGate is the seam for tests.
func NewHandlerWithGate(config *Config, gate *access.Gate, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		gate:   gate,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, commonerrors.NewInputValidationError(fmt.Sprintf("parse input: %v", err)))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := convertToStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.failJob(client, job, stdErr)
		return err
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrMissingUserID)
	}

	verdict, checkErr := h.gate.Check(ctx, input.UserID)
	if checkErr != nil {
		// The gate already denied; record the outage so this denial is not
		// mistaken for an expired trial.
		stdErr := commonerrors.NewAccessCheckFailedError(checkErr)
		h.logger.Error("access check degraded, denying", map[string]interface{}{
			"userId":    input.UserID,
			"errorCode": string(stdErr.Code),
			"retryable": stdErr.Retryable,
			"error":     checkErr.Error(),
		})
	}

	h.logger.Info("access verdict", map[string]interface{}{
		"userId":  input.UserID,
		"verdict": string(verdict),
	})

	return &Output{
		UserID:  input.UserID,
		Verdict: string(verdict),
		Allowed: verdict.Allowed(),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// failJob reports the failure to Camunda. Retryable technical errors go back
// to the engine with their remaining retries; business errors are thrown as
// BPMN errors for the workflow to route.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *commonerrors.StandardError) {
	bpmnErr := commonerrors.ConvertToBPMNError(stdErr)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
		"retries":      bpmnErr.Retries,
	})

	if bpmnErr.Retries > 0 {
		_, err := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(bpmnErr.Retries)).
			ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message)).
			Send(context.Background())
		if err != nil {
			h.logger.Error("failed to fail job", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// convertToStandardError maps the handler's sentinel errors onto the shared
// error taxonomy. A denied verdict is a business outcome and never reaches
// here; only malformed input fails the job.
func convertToStandardError(err error) *commonerrors.StandardError {
	if stdErr, ok := err.(*commonerrors.StandardError); ok {
		return stdErr
	}
	if errors.Is(err, ErrMissingUserID) {
		return commonerrors.NewInputValidationError(err.Error())
	}
	return &commonerrors.StandardError{
		Code:      "ACCESS_VALIDATION_ERROR",
		Message:   "Failed to validate access",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
