package triage

// Stage identifies a node of the triage workflow. The set is closed:
// every transition is defined over exactly these values.
type Stage int

const (
	StageRouter Stage = iota
	StageRAG
	StageTriage
	StageSelfCare
	StageDoctorReferral
	StageClarification
	StageReject
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageRouter:
		return "router"
	case StageRAG:
		return "rag"
	case StageTriage:
		return "triage"
	case StageSelfCare:
		return "self_care"
	case StageDoctorReferral:
		return "doctor_referral"
	case StageClarification:
		return "clarification"
	case StageReject:
		return "reject"
	case StageEnd:
		return "end"
	default:
		return "unknown"
	}
}

// RiskTier buckets the 0-10 risk score.
type RiskTier string

const (
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

// TierForScore maps a risk score to its tier: 0-3 low, 4-6 medium,
// 7-10 high.
func TierForScore(score int) RiskTier {
	switch {
	case score <= 3:
		return TierLow
	case score <= 6:
		return TierMedium
	default:
		return TierHigh
	}
}

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query is the immutable input to one workflow run.
type Query struct {
	Message string
	History []Message
	Image   string // optional base64 payload or data URL
}

// State carries the workflow progress. Stages receive it by value and
// return an updated copy; nothing mutates a state another stage holds.
type State struct {
	Query Query
	Stage Stage

	Relevant         bool
	ImageAnalysis    string
	ImageID          string
	KnowledgeContext string

	RiskScore   int
	RiskTier    RiskTier
	ScoreParsed bool // false when the model output had no usable RISK_SCORE line
	Assessment  string

	Response      string
	NeedsFollowUp bool
	Failed        bool // a stage's model call failed; Response carries the apology
}

// Next is the total transition function over the closed stage set.
// Terminal and unknown stages map to StageEnd, so iteration always
// halts.
func Next(s State) Stage {
	if s.Failed {
		return StageEnd
	}
	switch s.Stage {
	case StageRouter:
		if s.Relevant {
			return StageRAG
		}
		return StageReject
	case StageRAG:
		return StageTriage
	case StageTriage:
		switch s.RiskTier {
		case TierLow:
			return StageSelfCare
		case TierMedium, TierHigh:
			return StageDoctorReferral
		default:
			// Unreachable through TierForScore; kept so the routing
			// stays total if tiers ever widen.
			return StageClarification
		}
	default:
		return StageEnd
	}
}
