package triage

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oubia/medtriage/config"
	"github.com/oubia/medtriage/internal/rag"
	"github.com/oubia/medtriage/internal/telemetry"
	"github.com/oubia/medtriage/internal/vision"
	"github.com/oubia/medtriage/provider"
)

var workflowTracer trace.Tracer = otel.Tracer("medtriage/internal/triage")

// Workflow runs a patient query through the fixed triage pipeline:
// relevance routing, hybrid knowledge retrieval, risk scoring, then a
// tier-selected responder. A model failure in any stage ends the run
// with a generic apology instead of surfacing the error.
type Workflow struct {
	provider  provider.Provider
	retriever *rag.Service
	images    *vision.Analyzer
	prompts   config.PromptsConfig
	logger    *log.Logger
}

func NewWorkflow(p provider.Provider, retriever *rag.Service, images *vision.Analyzer, prompts config.PromptsConfig) *Workflow {
	return &Workflow{
		provider:  p,
		retriever: retriever,
		images:    images,
		prompts:   prompts,
		logger:    log.New(log.Writer(), "[TRIAGE] ", log.LstdFlags),
	}
}

// Run executes the workflow to completion and returns the final state.
func (w *Workflow) Run(ctx context.Context, q Query) State {
	telemetry.RecordChatRequest(ctx)
	ctx, span := workflowTracer.Start(ctx, "triage.run",
		trace.WithAttributes(attribute.Bool("query.has_image", q.Image != "")))
	defer span.End()

	st := State{Query: q, Stage: StageRouter}
	for st.Stage != StageEnd {
		st = w.step(ctx, st)
		st.Stage = Next(st)
	}
	if st.Response == "" {
		st.Response = w.prompts.FailureMessage
	}
	span.SetAttributes(
		attribute.Int("triage.risk_score", st.RiskScore),
		attribute.String("triage.risk_tier", string(st.RiskTier)),
	)
	return st
}

func (w *Workflow) step(ctx context.Context, st State) State {
	stage := st.Stage.String()
	ctx, span := workflowTracer.Start(ctx, "triage."+stage)
	defer span.End()

	var out State
	switch st.Stage {
	case StageRouter:
		out = w.runRouter(ctx, st)
	case StageRAG:
		out = w.runRAG(ctx, st)
	case StageTriage:
		out = w.runTriage(ctx, st)
	case StageSelfCare:
		out = w.runSelfCare(ctx, st)
	case StageDoctorReferral:
		out = w.runDoctorReferral(ctx, st)
	case StageClarification:
		out = w.runClarification(ctx, st)
	case StageReject:
		out = w.runReject(st)
	default:
		out = st
	}

	outcome := "ok"
	if out.Failed {
		outcome = "error"
	}
	telemetry.RecordStageOutcome(ctx, stage, outcome)
	return out
}

// runRouter asks the completion model whether the query is medical.
// Relevance is a substring match on the positive token; the router
// prompt instructs a single-token reply.
func (w *Workflow) runRouter(ctx context.Context, st State) State {
	queryContext := fmt.Sprintf("Query: %s", st.Query.Message)
	if st.Query.Image != "" {
		queryContext += "\n[Medical image attached]"
	}

	reply, err := w.complete(ctx, st.Stage, w.prompts.Router,
		fmt.Sprintf("Is this query medical-related? %s", queryContext))
	if err != nil {
		return w.fail(st, err)
	}
	st.Relevant = strings.Contains(strings.ToUpper(reply), "RELEVANT")
	return st
}

// runRAG analyzes the image when present, folds a 200-character
// excerpt of the findings into the retrieval query, runs the hybrid
// search and assembles the knowledge context.
func (w *Workflow) runRAG(ctx context.Context, st State) State {
	if st.Query.Image != "" && w.images != nil {
		analysis, err := w.images.Analyze(ctx, st.Query.Image, st.Query.Message, true)
		if err != nil {
			w.logger.Printf("image analysis failed, continuing text-only: %v", err)
		} else {
			st.ImageAnalysis = analysis.Analysis
			st.ImageID = analysis.ImageID
		}
	}

	searchQuery := st.Query.Message
	if st.ImageAnalysis != "" {
		excerpt := st.ImageAnalysis
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		searchQuery += "\n\nImage findings: " + excerpt
	}

	hybrid, err := w.retriever.HybridSearch(ctx, searchQuery, w.retriever.TopK())
	if err != nil {
		return w.fail(st, err)
	}

	var vectorParts []string
	for _, r := range hybrid.VectorResults {
		source := r.Source
		if source == "" {
			source = "unknown"
		}
		vectorParts = append(vectorParts, fmt.Sprintf("[Source: %s]\n%s", source, r.Content))
	}

	knowledgeContext := fmt.Sprintf("=== Vector Search Results ===\n%s\n\n=== Knowledge Graph Results ===\n%s",
		strings.Join(vectorParts, "\n\n"), hybrid.GraphResults)
	if st.ImageAnalysis != "" {
		knowledgeContext += fmt.Sprintf("\n\n=== Medical Image Analysis ===\n%s", st.ImageAnalysis)
	}
	st.KnowledgeContext = knowledgeContext
	return st
}

// runTriage asks for a risk assessment and parses the RISK_SCORE line.
// Output that yields no usable score keeps the default of 5 with
// ScoreParsed=false; an unparseable score is an outcome, not an error.
func (w *Workflow) runTriage(ctx context.Context, st State) State {
	promptContext := fmt.Sprintf("Patient Query: %s\n\nAvailable Medical Knowledge:\n%s",
		st.Query.Message, st.KnowledgeContext)
	if st.ImageAnalysis != "" {
		promptContext += fmt.Sprintf("\n\nIMPORTANT - Medical Image Analysis:\n%s\n\nNote: The image analysis should be weighted heavily in your risk assessment.",
			st.ImageAnalysis)
	}

	reply, err := w.complete(ctx, st.Stage, w.prompts.Triage, promptContext+"\n\nProvide your risk assessment.")
	if err != nil {
		return w.fail(st, err)
	}

	st.Assessment = reply
	st.RiskScore, st.ScoreParsed = parseRiskScore(reply)
	st.RiskTier = TierForScore(st.RiskScore)
	if !st.ScoreParsed {
		w.logger.Printf("no usable RISK_SCORE in assessment, defaulting to %d", st.RiskScore)
	}
	return st
}

func (w *Workflow) runSelfCare(ctx context.Context, st State) State {
	user := fmt.Sprintf("Patient Query: %s\nRisk Score: %d/10\n\nMedical Knowledge:\n%s\n\nProvide helpful self-care advice.",
		st.Query.Message, st.RiskScore, st.KnowledgeContext)
	reply, err := w.complete(ctx, st.Stage, w.prompts.SelfCare, user)
	if err != nil {
		return w.fail(st, err)
	}
	st.Response = reply
	st.NeedsFollowUp = false
	return st
}

func (w *Workflow) runDoctorReferral(ctx context.Context, st State) State {
	user := fmt.Sprintf("Patient Query: %s\nRisk Score: %d/10 (%s risk)\n\nMedical Knowledge:\n%s\n\nProvide appropriate medical referral guidance.",
		st.Query.Message, st.RiskScore, st.RiskTier, st.KnowledgeContext)
	reply, err := w.complete(ctx, st.Stage, w.prompts.DoctorReferral, user)
	if err != nil {
		return w.fail(st, err)
	}
	st.Response = reply
	st.NeedsFollowUp = false
	return st
}

func (w *Workflow) runClarification(ctx context.Context, st State) State {
	user := fmt.Sprintf("Patient Query: %s\n\nWhat additional information would help assess this situation?",
		st.Query.Message)
	reply, err := w.complete(ctx, st.Stage, w.prompts.Clarification, user)
	if err != nil {
		return w.fail(st, err)
	}
	st.Response = "I need more information to help you better:\n\n" + reply
	st.NeedsFollowUp = true
	return st
}

// runReject answers with the fixed apology; no model call is made.
func (w *Workflow) runReject(st State) State {
	st.Response = w.prompts.RejectMessage
	st.NeedsFollowUp = false
	return st
}

// complete wraps the model call with latency metrics.
func (w *Workflow) complete(ctx context.Context, stage Stage, system, user string) (string, error) {
	start := time.Now()
	reply, err := w.provider.Complete(ctx, system, user)
	telemetry.RecordModelCall(ctx, stage.String(), time.Since(start).Seconds(), err == nil)
	return reply, err
}

// fail records the stage failure and swaps in the apology response.
func (w *Workflow) fail(st State, err error) State {
	w.logger.Printf("stage %s failed: %v", st.Stage, err)
	st.Failed = true
	st.Response = w.prompts.FailureMessage
	return st
}

// parseRiskScore scans the assessment for the first RISK_SCORE line
// and returns its integer value, or the default of 5 when absent or
// malformed.
func parseRiskScore(assessment string) (int, bool) {
	for _, line := range strings.Split(assessment, "\n") {
		if !strings.Contains(line, "RISK_SCORE:") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		score, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 5, false
		}
		if score < 0 {
			score = 0
		}
		if score > 10 {
			score = 10
		}
		return score, true
	}
	return 5, false
}
