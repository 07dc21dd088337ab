package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oubia/medtriage/config"
	"github.com/oubia/medtriage/internal/rag"
	"github.com/oubia/medtriage/internal/vision"
)

// scriptedProvider answers each workflow stage from a fixed script,
// keyed on the system prompt the stage sends.
type scriptedProvider struct {
	prompts config.PromptsConfig

	routerReply    string
	routerErr      error
	triageReply    string
	triageErr      error
	responderReply string
	responderErr   error
	visionReply    string
	visionErr      error

	completeCalls []string
}

func (p *scriptedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	switch system {
	case p.prompts.Router:
		p.completeCalls = append(p.completeCalls, "router")
		return p.routerReply, p.routerErr
	case p.prompts.Triage:
		p.completeCalls = append(p.completeCalls, "triage")
		return p.triageReply, p.triageErr
	case p.prompts.SelfCare:
		p.completeCalls = append(p.completeCalls, "self_care")
		return p.responderReply, p.responderErr
	case p.prompts.DoctorReferral:
		p.completeCalls = append(p.completeCalls, "doctor_referral")
		return p.responderReply, p.responderErr
	case p.prompts.Clarification:
		p.completeCalls = append(p.completeCalls, "clarification")
		return p.responderReply, p.responderErr
	}
	return "", errors.New("unexpected system prompt")
}

func (p *scriptedProvider) CompleteVision(ctx context.Context, prompt, imageURL string) (string, error) {
	return p.visionReply, p.visionErr
}

func (p *scriptedProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func testWorkflowPrompts() config.PromptsConfig {
	return config.PromptsConfig{
		Router:             config.DefaultRouterPrompt,
		Triage:             config.DefaultTriagePrompt,
		SelfCare:           config.DefaultSelfCarePrompt,
		DoctorReferral:     config.DefaultDoctorReferralPrompt,
		Clarification:      config.DefaultClarificationPrompt,
		RejectMessage:      config.DefaultRejectMessage,
		FailureMessage:     config.DefaultFailureMessage,
		VisionAnalyze:      config.DefaultVisionAnalyzePrompt,
		VisionAnalyzeQuery: config.DefaultVisionAnalyzeQueryPrompt,
		VisionSummary:      config.DefaultVisionSummaryPrompt,
	}
}

func newTestWorkflow(t *testing.T, p *scriptedProvider, withVision bool) *Workflow {
	t.Helper()
	idx, err := rag.NewIndex()
	if err != nil {
		t.Fatalf("rag.NewIndex: %v", err)
	}
	var analyzer *vision.Analyzer
	if withVision {
		vs, err := vision.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("vision.NewStore: %v", err)
		}
		analyzer = vision.NewAnalyzer(p, vs, p.prompts)
	}
	retriever := rag.NewService(p, idx, rag.DefaultGraph(), rag.NewSplitter(1000, 200), nil, analyzer, 4)
	return NewWorkflow(p, retriever, analyzer, p.prompts)
}

func TestRunRejectsNonMedicalQuery(t *testing.T) {
	p := &scriptedProvider{prompts: testWorkflowPrompts(), routerReply: "no"}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "how do I file my taxes"})
	if st.Response != config.DefaultRejectMessage {
		t.Fatalf("expected reject message, got %q", st.Response)
	}
	if st.NeedsFollowUp {
		t.Fatalf("reject must not request follow-up")
	}
	if len(p.completeCalls) != 1 || p.completeCalls[0] != "router" {
		t.Fatalf("reject must make no model calls beyond the router: %v", p.completeCalls)
	}
}

func TestRunRouterTokenIsSubstringMatch(t *testing.T) {
	// "NOT_RELEVANT" contains the positive token, so it routes into
	// the pipeline; only replies without it reach the reject stage.
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "NOT_RELEVANT",
		triageReply:    "RISK_SCORE: 2\nREASONING: mild",
		responderReply: "rest and fluids",
	}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "hello"})
	if st.Response != "rest and fluids" {
		t.Fatalf("expected pipeline to run, got %q", st.Response)
	}
}

func TestRunLowRiskGoesToSelfCare(t *testing.T) {
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "RELEVANT",
		triageReply:    "RISK_SCORE: 2\nREASONING: mild symptoms",
		responderReply: "Rest, hydrate, and monitor your temperature.",
	}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "I have a mild sore throat"})
	if st.RiskTier != TierLow || st.RiskScore != 2 {
		t.Fatalf("unexpected risk: %d %s", st.RiskScore, st.RiskTier)
	}
	if !st.ScoreParsed {
		t.Fatalf("expected score to parse")
	}
	if st.Response != "Rest, hydrate, and monitor your temperature." {
		t.Fatalf("unexpected response: %q", st.Response)
	}
	if st.NeedsFollowUp {
		t.Fatalf("self-care must not request follow-up")
	}
	if p.completeCalls[len(p.completeCalls)-1] != "self_care" {
		t.Fatalf("expected self_care responder, calls: %v", p.completeCalls)
	}
}

func TestRunTierBoundaries(t *testing.T) {
	cases := []struct {
		score     string
		tier      RiskTier
		responder string
	}{
		{"0", TierLow, "self_care"},
		{"3", TierLow, "self_care"},
		{"4", TierMedium, "doctor_referral"},
		{"6", TierMedium, "doctor_referral"},
		{"7", TierHigh, "doctor_referral"},
		{"10", TierHigh, "doctor_referral"},
	}
	for _, tc := range cases {
		p := &scriptedProvider{
			prompts:        testWorkflowPrompts(),
			routerReply:    "RELEVANT",
			triageReply:    "RISK_SCORE: " + tc.score + "\nREASONING: scripted",
			responderReply: "guidance",
		}
		w := newTestWorkflow(t, p, false)
		st := w.Run(context.Background(), Query{Message: "symptoms"})
		if st.RiskTier != tc.tier {
			t.Fatalf("score %s: tier %s, want %s", tc.score, st.RiskTier, tc.tier)
		}
		last := p.completeCalls[len(p.completeCalls)-1]
		if last != tc.responder {
			t.Fatalf("score %s: responder %s, want %s", tc.score, last, tc.responder)
		}
	}
}

func TestRunUnparseableScoreDefaultsToMedium(t *testing.T) {
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "RELEVANT",
		triageReply:    "RISK_SCORE: seven out of ten\nREASONING: vague",
		responderReply: "see a doctor within 48 hours",
	}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "chest discomfort"})
	if st.RiskScore != 5 || st.RiskTier != TierMedium {
		t.Fatalf("expected default 5/medium, got %d/%s", st.RiskScore, st.RiskTier)
	}
	if st.ScoreParsed {
		t.Fatalf("expected ScoreParsed=false")
	}
	if st.Response != "see a doctor within 48 hours" {
		t.Fatalf("default score must still produce a response: %q", st.Response)
	}
}

func TestRunMissingScoreLineDefaults(t *testing.T) {
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "RELEVANT",
		triageReply:    "The patient seems fine overall.",
		responderReply: "guidance",
	}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "fatigue"})
	if st.RiskScore != 5 || st.ScoreParsed {
		t.Fatalf("expected silent default, got %d parsed=%v", st.RiskScore, st.ScoreParsed)
	}
}

func TestRunRouterFailureYieldsApology(t *testing.T) {
	p := &scriptedProvider{prompts: testWorkflowPrompts(), routerErr: errors.New("upstream 500")}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "fever"})
	if st.Response != config.DefaultFailureMessage {
		t.Fatalf("expected failure message, got %q", st.Response)
	}
	if !st.Failed {
		t.Fatalf("expected Failed=true")
	}
}

func TestRunTriageFailureYieldsApology(t *testing.T) {
	p := &scriptedProvider{
		prompts:     testWorkflowPrompts(),
		routerReply: "RELEVANT",
		triageErr:   errors.New("timeout"),
	}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "fever"})
	if st.Response != config.DefaultFailureMessage {
		t.Fatalf("expected failure message, got %q", st.Response)
	}
	for _, call := range p.completeCalls {
		if call == "self_care" || call == "doctor_referral" {
			t.Fatalf("responder must not run after a triage failure: %v", p.completeCalls)
		}
	}
}

func TestRunAssemblesKnowledgeContext(t *testing.T) {
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "RELEVANT",
		triageReply:    "RISK_SCORE: 3\nREASONING: ok",
		responderReply: "advice",
	}
	w := newTestWorkflow(t, p, false)

	st := w.Run(context.Background(), Query{Message: "I have a fever and cough"})
	for _, section := range []string{"=== Vector Search Results ===", "=== Knowledge Graph Results ==="} {
		if !strings.Contains(st.KnowledgeContext, section) {
			t.Fatalf("context missing section %q: %q", section, st.KnowledgeContext)
		}
	}
	if !strings.Contains(st.KnowledgeContext, "fever: related to") {
		t.Fatalf("graph results missing from context: %q", st.KnowledgeContext)
	}
	if strings.Contains(st.KnowledgeContext, "=== Medical Image Analysis ===") {
		t.Fatalf("image section must be absent without an image")
	}
}

func TestRunWithImageFoldsAnalysisIntoContext(t *testing.T) {
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "RELEVANT",
		triageReply:    "RISK_SCORE: 8\nREASONING: concerning findings",
		responderReply: "go to the emergency room",
		visionReply:    "Opacity consistent with pneumonia in the right lower lobe.",
	}
	w := newTestWorkflow(t, p, true)

	st := w.Run(context.Background(), Query{
		Message: "is this x-ray normal",
		Image:   "data:image/png;base64,ZmFrZWltYWdl",
	})
	if st.ImageAnalysis == "" || st.ImageID == "" {
		t.Fatalf("expected image analysis in state: %#v", st)
	}
	if !strings.Contains(st.KnowledgeContext, "=== Medical Image Analysis ===") {
		t.Fatalf("context missing image section: %q", st.KnowledgeContext)
	}
	if st.RiskTier != TierHigh {
		t.Fatalf("expected high tier, got %s", st.RiskTier)
	}
}

func TestRunImageAnalysisFailureContinuesTextOnly(t *testing.T) {
	p := &scriptedProvider{
		prompts:        testWorkflowPrompts(),
		routerReply:    "RELEVANT",
		triageReply:    "RISK_SCORE: 2\nREASONING: mild",
		responderReply: "advice",
		visionErr:      errors.New("vision model down"),
	}
	w := newTestWorkflow(t, p, true)

	st := w.Run(context.Background(), Query{
		Message: "mild rash",
		Image:   "data:image/png;base64,ZmFrZWltYWdl",
	})
	if st.Failed {
		t.Fatalf("image failure must not fail the run")
	}
	if st.Response != "advice" {
		t.Fatalf("unexpected response: %q", st.Response)
	}
	if st.ImageAnalysis != "" {
		t.Fatalf("expected no image analysis on failure")
	}
}

func TestNextIsTotal(t *testing.T) {
	for s := StageRouter; s <= StageEnd; s++ {
		st := State{Stage: s}
		next := Next(st)
		if next < StageRouter || next > StageEnd {
			t.Fatalf("transition from %s left the stage set: %v", s, next)
		}
	}
	if Next(State{Stage: StageTriage, RiskTier: RiskTier("unknown")}) != StageClarification {
		t.Fatalf("unmapped tier must route to clarification")
	}
	if Next(State{Stage: StageRouter, Failed: true}) != StageEnd {
		t.Fatalf("failed state must halt")
	}
}

func TestParseRiskScoreFirstLineWins(t *testing.T) {
	score, ok := parseRiskScore("preamble\nRISK_SCORE: 7\nRISK_SCORE: 2")
	if !ok || score != 7 {
		t.Fatalf("got %d ok=%v", score, ok)
	}
}

func TestParseRiskScoreClamps(t *testing.T) {
	if score, ok := parseRiskScore("RISK_SCORE: 15"); !ok || score != 10 {
		t.Fatalf("expected clamp to 10, got %d ok=%v", score, ok)
	}
}
