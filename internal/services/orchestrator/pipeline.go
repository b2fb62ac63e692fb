package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// LLM is the completion dependency of the pipeline. Implementations are
// expected to fall back to deterministic demo output when no provider
// credential is configured.
type LLM interface {
	Complete(ctx context.Context, model, systemPrompt, userMessage string, maxTokens int) (string, error)
}

// Dispatcher performs agent-to-agent calls, absorbing all failures into
// the returned text.
type Dispatcher interface {
	Call(ctx context.Context, agent, endpoint string, body interface{}) string
}

// subAgentRoutes maps the planner's agent names onto their specialized
// endpoints and input field names.
var subAgentRoutes = map[string]struct {
	endpoint string
	field    string
}{
	"SummaryBot":  {endpoint: "/summarize", field: "text"},
	"CodeAuditor": {endpoint: "/audit", field: "code"},
}

const planSystemPrompt = `You are the Orchestrator, a meta-agent on ClawNad that coordinates other AI agents.

Available agents:
- SummaryBot (agentId: 127): text-summarization, content-extraction
- CodeAuditor (agentId: 128): security-audit, vulnerability-detection, solidity, code-review

Analyze the user's task and create a plan. For each step, indicate which agent to use.
Respond in JSON format:
{
  "steps": [
    {"step": 1, "agent": "SummaryBot|CodeAuditor|self", "action": "description", "input": "what to send"}
  ],
  "reasoning": "why this plan"
}`

const selfExecutePrompt = "You are the Orchestrator. Execute this sub-task directly."

const synthesisPrompt = "You are the Orchestrator. Synthesize the results from multiple agent sub-tasks into a cohesive final answer."

// StepResult records the outcome of one executed plan step. Never mutated
// after creation; used for the synthesis prompt and the response payload.
type StepResult struct {
	Step   int    `json:"step"`
	Agent  string `json:"agent"`
	Action string `json:"action"`
	Result string `json:"result"`
}

// Result is the full outcome of one orchestrated task.
type Result struct {
	Task        string       `json:"task"`
	Plan        string       `json:"plan"`
	Steps       []StepResult `json:"steps"`
	FinalResult string       `json:"finalResult"`
	Model       string       `json:"model"`
}

// Pipeline runs the three-phase plan / execute / synthesize flow for a
// single task. Phases are strictly sequential; steps within the execute
// phase run one at a time in plan order because later steps may reference
// earlier results in free text.
type Pipeline struct {
	llm        LLM
	dispatcher Dispatcher
	model      string
}

func NewPipeline(llm LLM, dispatcher Dispatcher, model string) *Pipeline {
	return &Pipeline{llm: llm, dispatcher: dispatcher, model: model}
}

// Run executes the pipeline. Only the plan and synthesis calls can fail
// the request; every per-step failure is folded into that step's result.
func (p *Pipeline) Run(ctx context.Context, task string) (*Result, error) {
	planText, err := p.llm.Complete(ctx, p.model, planSystemPrompt, task, 1024)
	if err != nil {
		return nil, fmt.Errorf("orchestrator plan: %w", err)
	}

	plan := ExtractPlan(planText)
	log.Info().Int("steps", len(plan.Steps)).Msg("Orchestrator plan extracted")

	steps := make([]StepResult, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		var result string
		if route, ok := subAgentRoutes[step.Agent]; ok {
			result = p.dispatcher.Call(ctx, step.Agent, route.endpoint, map[string]string{route.field: step.Input})
		} else {
			input := step.Input
			if input == "" {
				input = step.Action
			}
			result, err = p.llm.Complete(ctx, p.model, selfExecutePrompt, input, 1024)
			if err != nil {
				result = fmt.Sprintf("[Step failed: %v]", err)
			}
		}

		steps = append(steps, StepResult{
			Step:   step.Step,
			Agent:  step.Agent,
			Action: step.Action,
			Result: result,
		})
	}

	final, err := p.llm.Complete(ctx, p.model, synthesisPrompt, synthesisUserPrompt(task, steps), 2048)
	if err != nil {
		return nil, fmt.Errorf("orchestrator synthesis: %w", err)
	}

	return &Result{
		Task:        task,
		Plan:        plan.Reasoning,
		Steps:       steps,
		FinalResult: final,
		Model:       p.model,
	}, nil
}

func synthesisUserPrompt(task string, steps []StepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original task: %s\n\nResults:\n", task)
	for i, s := range steps {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Step %d (%s): %s", s.Step, s.Agent, s.Result)
	}
	return b.String()
}
