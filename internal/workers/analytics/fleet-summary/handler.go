// internal/workers/analytics/fleet-summary/handler.go
package fleetsummary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "load-analytics-engine/internal/common/errors"
	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/common/metrics"
	"load-analytics-engine/internal/engine/economics"
	"load-analytics-engine/internal/engine/fleet"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "fleet-summary"
)

var (
	ErrInvalidFilterFormat = errors.New("INVALID_FILTER_FORMAT")
)

const dateLayout = "2006-01-02"

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
	filter, err := parseFilter(input.Filter)
	if err != nil {
		return nil, err
	}

	sortBy := fleet.Sort{Key: input.Sort.Key}
	if input.Sort.Desc != nil {
		sortBy.Desc = *input.Sort.Desc
	} else {
		// First click on a column uses its natural direction.
		sortBy.Desc = fleet.DefaultDirection(input.Sort.Key)
	}

	size := input.Size
	if size <= 0 {
		size = h.config.PageSize
	}
	page := fleet.Page{Number: input.Page, Size: size}

	pipeline := fleet.NewPipeline(economics.NewCalculator(input.DispatcherFees, input.DriverPayPlans))
	result := pipeline.Run(input.Loads, filter, sortBy, page)

	role := fleet.ViewerRole(input.ViewerRole)
	groups := fleet.RevenueGroups(pipeline.Filtered(input.Loads, filter), role)

	return &Output{
		Loads:         result.Loads,
		FilteredCount: result.FilteredCount,
		PageCount:     result.PageCount,
		Page:          result.Page,
		RevenueGroups: groups,
	}, nil
}

func parseFilter(in FilterInput) (fleet.Filter, error) {
	filter := fleet.Filter{
		Search:   in.Search,
		DriverID: in.DriverID,
	}

	if in.From != "" {
		from, err := time.Parse(dateLayout, in.From)
		if err != nil {
			return fleet.Filter{}, fmt.Errorf("%w: from date %q: %v", ErrInvalidFilterFormat, in.From, err)
		}
		filter.From = &from
	}
	if in.To != "" {
		to, err := time.Parse(dateLayout, in.To)
		if err != nil {
			return fleet.Filter{}, fmt.Errorf("%w: to date %q: %v", ErrInvalidFilterFormat, in.To, err)
		}
		filter.To = &to
	}
	return filter, nil
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
	if errors.Is(err, ErrInvalidFilterFormat) {
		return commonerrors.NewInvalidFilterFormatError(err.Error())
	}
	return &commonerrors.StandardError{
		Code:      "FLEET_SUMMARY_ERROR",
		Message:   "Failed to build fleet summary",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
