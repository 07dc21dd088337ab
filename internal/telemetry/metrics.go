package telemetry

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	workflowMetricsOnce sync.Once
	chatRequests        otelmetric.Int64Counter
	stageOutcomes       otelmetric.Int64Counter
	modelCallDuration   otelmetric.Float64Histogram
)

func initWorkflowMetrics() {
	meter := otel.Meter("medtriage/triage")
	var err error
	chatRequests, err = meter.Int64Counter(
		"triage_chat_requests_total",
		otelmetric.WithDescription("Chat requests entering the triage workflow"),
	)
	if err != nil {
		log.Printf("triage metrics init: triage_chat_requests_total: %v", err)
	}
	stageOutcomes, err = meter.Int64Counter(
		"triage_stage_outcomes_total",
		otelmetric.WithDescription("Per-stage workflow outcomes"),
	)
	if err != nil {
		log.Printf("triage metrics init: triage_stage_outcomes_total: %v", err)
	}
	modelCallDuration, err = meter.Float64Histogram(
		"triage_model_call_seconds",
		otelmetric.WithDescription("Latency of model calls per workflow stage"),
		otelmetric.WithUnit("s"),
	)
	if err != nil {
		log.Printf("triage metrics init: triage_model_call_seconds: %v", err)
	}
}

// RecordChatRequest counts a workflow invocation.
func RecordChatRequest(ctx context.Context) {
	workflowMetricsOnce.Do(initWorkflowMetrics)
	if chatRequests == nil {
		return
	}
	chatRequests.Add(ctx, 1)
}

// RecordStageOutcome counts one stage finishing with the given outcome
// ("ok", "error", "reject", ...).
func RecordStageOutcome(ctx context.Context, stage, outcome string) {
	workflowMetricsOnce.Do(initWorkflowMetrics)
	if stageOutcomes == nil {
		return
	}
	stageOutcomes.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// RecordModelCall records the latency of a model call made by a stage.
func RecordModelCall(ctx context.Context, stage string, seconds float64, success bool) {
	workflowMetricsOnce.Do(initWorkflowMetrics)
	if modelCallDuration == nil {
		return
	}
	modelCallDuration.Record(ctx, seconds, otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", success),
	))
}
