// internal/workers/analytics/route-analysis/handler.go
package routeanalysis

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
	"load-analytics-engine/internal/engine/geocode"
	"load-analytics-engine/internal/engine/routes"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "route-analysis"
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
				"required": ["id", "origin", "destination"],
				"properties": {
					"id":          {"type": "string", "minLength": 1},
					"origin":      {"type": "string", "minLength": 1},
					"destination": {"type": "string", "minLength": 1}
				}
			}
		},
		"sortBy": {
			"type": "string",
			"enum": ["loadCount", "avgGross", "ratePerMile", "avgNetProfit", ""]
		}
	}
}`

type Handler struct {
	config   *Config
	resolver *geocode.Resolver
	logger   logger.Logger
}

// NewHandler wires the read-through geocode cache: redis-backed store in front
// of the configured HTTP provider.
func NewHandler(config *Config, redisClient *redis.Client, log logger.Logger) *Handler {
	provider := geocode.NewHTTPProvider(geocode.ProviderConfig{
		BaseURL: config.GeocodeBaseURL,
		APIKey:  config.GeocodeAPIKey,
		Timeout: config.GeocodeTimeout,
	})
	store := geocode.NewRedisStore(redisClient, config.GeocodeCacheTTL)
	return NewHandlerWithResolver(config, geocode.NewResolver(store, provider, log), log)
}

// NewHandlerWithResolver is the seam for tests and non-redis deployments.
func NewHandlerWithResolver(config *Config, resolver *geocode.Resolver, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		resolver: resolver,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	result, err := validation.ValidateJSON(input, inputSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoadSet, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLoadSet, strings.Join(result.GetErrorMessages(), "; "))
	}

	calc := economics.NewCalculator(input.DispatcherFees, input.DriverPayPlans)
	calculated := calc.CalculateAll(input.Loads)

	analyzer := routes.NewAnalyzer(h.resolver)
	filters := routes.Filters{Pickup: input.Pickup, Destination: input.Destination}
	analyzed := analyzer.Analyze(ctx, calculated, filters, routes.SortKey(input.SortBy))

	return &Output{
		AnalysisID:    uuid.New().String(),
		Routes:        analyzed,
		ScatterPoints: routes.ScatterPoints(analyzed),
		RouteCount:    len(analyzed),
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
// error taxonomy. Geocoding failures never reach here; unresolved places
// degrade to routes without coordinates instead of failing the job.
func convertToStandardError(err error) *commonerrors.StandardError {
	if stdErr, ok := err.(*commonerrors.StandardError); ok {
		return stdErr
	}
	if errors.Is(err, ErrInvalidLoadSet) {
		return commonerrors.NewInvalidLoadSetError(err.Error())
	}
	return &commonerrors.StandardError{
		Code:      "ROUTE_ANALYSIS_ERROR",
		Message:   "Failed to analyze routes",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
