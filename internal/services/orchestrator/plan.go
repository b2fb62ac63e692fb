package orchestrator

import (
	"encoding/json"
	"strings"
)

// PlanStep is one unit of work the planner asks for. Agent is either a
// known sub-agent name or "self" for direct execution.
type PlanStep struct {
	Step   int    `json:"step"`
	Agent  string `json:"agent"`
	Action string `json:"action"`
	Input  string `json:"input"`
}

// Plan is the planner's decomposition of a task.
type Plan struct {
	Steps     []PlanStep `json:"steps"`
	Reasoning string     `json:"reasoning"`
}

// ExtractPlan pulls a Plan out of free-form LLM output. The model is
// asked for a single JSON object but is not guaranteed to produce one, so
// this is best-effort: the span from the first "{" to the last "}" is
// parsed, and on any failure the whole raw text becomes the reasoning
// with an empty step list. The request must never fail just because the
// planner rambled.
//
// Known worst case: trailing unrelated braces after the plan object widen
// the span and make the parse fail, degrading to the raw-text fallback.
// That trade-off is deliberate; do not tighten this into a strict parser.
func ExtractPlan(raw string) Plan {
	fallback := Plan{Reasoning: raw}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fallback
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw[start:end+1]), &plan); err != nil {
		return fallback
	}
	return plan
}
