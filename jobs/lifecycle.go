package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/courtlist/courtlist/internal/accounts"
	jobmetrics "github.com/courtlist/courtlist/internal/jobs"
	"github.com/courtlist/courtlist/internal/lifecycle"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LifecycleSweepJob runs inactive-account sweeps from the scheduler.
type LifecycleSweepJob struct {
	Lifecycle *lifecycle.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLifecycleSweepJob wires dependencies for the sweep handler.
func NewLifecycleSweepJob(svc *lifecycle.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LifecycleSweepJob {
	return &LifecycleSweepJob{Lifecycle: svc, Logger: logger, Metrics: metrics}
}

// Handle processes lifecycle sweep tasks. An empty class sweeps all
// three account classes.
func (j *LifecycleSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Lifecycle == nil {
		return errors.New("lifecycle sweep: handler not configured")
	}
	var payload LifecycleSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLifecycleSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("class", payload.Class))
	logger.Info("starting lifecycle sweep")

	if payload.Class == "" {
		resultErr = j.Lifecycle.Run(ctx)
	} else {
		resultErr = j.Lifecycle.RunClass(ctx, accounts.StaleClass(payload.Class))
	}
	if resultErr != nil {
		logger.Error("lifecycle sweep", slog.Any("error", resultErr))
	}
	return resultErr
}

func (j *LifecycleSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LifecycleSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
