package domain

// Expert names, used as weight keys and in verdict logging.
const (
	ExpertSourceMatcher       = "source_matcher"
	ExpertHallucinationHunter = "hallucination_hunter"
	ExpertLogicExpert         = "logic_expert"
)

// LogicAction is the Logic Expert's recommendation for a candidate.
type LogicAction string

const (
	ActionKeep    LogicAction = "keep"
	ActionMerge   LogicAction = "merge"
	ActionDiscard LogicAction = "discard"
)

func ValidLogicAction(a string) bool {
	switch LogicAction(a) {
	case ActionKeep, ActionMerge, ActionDiscard:
		return true
	}
	return false
}

// Verdict is one expert's judgment of one candidate thought. Verdicts are
// ephemeral: they exist only inside a gauntlet evaluation and the decision
// that retains them for explainability.
type Verdict struct {
	Expert     string  `json:"expert"`
	Pass       bool    `json:"pass"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`

	// SupportingChunks lists the context chunks the Source Matcher found
	// backing the claim; merged into provenance when the thought is
	// accepted.
	SupportingChunks []int `json:"supporting_chunks,omitempty"`

	// Action and RelatedNode are set by the Logic Expert only. RelatedNode
	// is the existing graph node a merge targets, or -1.
	Action      LogicAction `json:"action,omitempty"`
	RelatedNode int         `json:"related_node,omitempty"`
}

// GauntletDecision aggregates the three verdicts for one candidate.
// Immutable after creation.
type GauntletDecision struct {
	Accepted bool    `json:"accepted"`
	Score    float64 `json:"score"`

	// Action is keep for accepted thoughts, merge when the Logic Expert
	// named a valid existing node to fold the candidate into, discard
	// otherwise.
	Action      LogicAction `json:"action"`
	MergeTarget int         `json:"merge_target"`

	Verdicts  []Verdict `json:"verdicts"`
	Rationale string    `json:"rationale"`
}
