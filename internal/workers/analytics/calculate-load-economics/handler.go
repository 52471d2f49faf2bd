// internal/workers/analytics/calculate-load-economics/handler.go
package calculateloadeconomics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "load-analytics-engine/internal/common/errors"
	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/common/metrics"
	"load-analytics-engine/internal/common/validation"
	"load-analytics-engine/internal/engine/economics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-load-economics"
)

var (
	ErrInvalidLoadSet = errors.New("INVALID_LOAD_SET")
)

const inputSchema = `{
	"type": "object",
	"required": ["loads"],
	"properties": {
		"loads": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "gross"],
				"properties": {
					"id":     {"type": "string", "minLength": 1},
					"gross":  {"type": "number"},
					"miles":  {"type": "number", "minimum": 0}
				}
			}
		}
	}
}`

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	result, err := validation.ValidateJSON(input, inputSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoadSet, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLoadSet, strings.Join(result.GetErrorMessages(), "; "))
	}

	calc := economics.NewCalculator(input.DispatcherFees, input.DriverPayPlans)
	calculated := calc.CalculateAll(input.Loads)

	var totals Totals
	for i := range calculated {
		if name, ok := input.DriverNames[calculated[i].DriverID]; ok {
			calculated[i].DriverName = name
		}
		totals.Gross += calculated[i].Gross
		totals.DispatchFee += calculated[i].DispatchFee
		totals.DriverPay += calculated[i].DriverPay
		totals.NetProfit += calculated[i].NetProfit
	}

	issues := economics.ValidateConfig(input.DispatcherFees, input.DriverPayPlans)
	if len(issues) > 0 {
		h.logger.Warn("economics config has issues", map[string]interface{}{
			"issueCount": len(issues),
		})
	}

	return &Output{
		CalculatedLoads: calculated,
		Totals:          totals,
		ConfigIssues:    issues,
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
// error taxonomy.
func convertToStandardError(err error) *commonerrors.StandardError {
	if stdErr, ok := err.(*commonerrors.StandardError); ok {
		return stdErr
	}
	if errors.Is(err, ErrInvalidLoadSet) {
		return commonerrors.NewInvalidLoadSetError(err.Error())
	}
	return &commonerrors.StandardError{
		Code:      "LOAD_ECONOMICS_ERROR",
		Message:   "Failed to calculate load economics",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
