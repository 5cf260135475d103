package core

import (
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/planner"
)

// DefaultFinalResponseInstruction is used when the planner leaves the final instruction blank.
// The responder swaps it for the localized default.
const DefaultFinalResponseInstruction = "Answer the user's latest message using the research results above."

// Normalize trims plan text, assigns unique whitespace-free invocation ids, strips
// null parameters and drops empty entries. Normalize(Normalize(p)) == Normalize(p).
func Normalize(plan planner.ToolPlan) planner.ToolPlan {
	out := planner.ToolPlan{
		Plan:            make([]planner.PlanStep, 0, len(plan.Plan)),
		ToolInvocations: make([]planner.ToolInvocation, 0, len(plan.ToolInvocations)),
	}

	for _, s := range plan.Plan {
		step, detail := strings.TrimSpace(s.Step), strings.TrimSpace(s.Detail)
		if step == "" || detail == "" {
			continue
		}
		out.Plan = append(out.Plan, planner.PlanStep{Step: step, Detail: detail})
		if len(out.Plan) == planner.MaxPlanSteps {
			break
		}
	}

	used := make(map[string]struct{}, len(plan.ToolInvocations))
	for i, inv := range plan.ToolInvocations {
		tool := planner.ToolName(strings.TrimSpace(string(inv.Tool)))
		desc := strings.TrimSpace(inv.Description)
		if desc == "" && tool != planner.ToolNone {
			continue
		}
		out.ToolInvocations = append(out.ToolInvocations, planner.ToolInvocation{
			ID:          uniqueID(idToken(inv.ID, i+1), used),
			Tool:        tool,
			Description: desc,
			Parameters:  stripNulls(inv.Parameters),
		})
		if len(out.ToolInvocations) == planner.MaxInvocations {
			break
		}
	}

	out.FinalResponseInstruction = strings.TrimSpace(plan.FinalResponseInstruction)
	if out.FinalResponseInstruction == "" {
		out.FinalResponseInstruction = DefaultFinalResponseInstruction
	}
	return out
}

func idToken(raw string, position int) string {
	token := strings.Join(strings.Fields(raw), "-")
	if token == "" {
		token = "step-" + strconv.Itoa(position)
	}
	return token
}

// uniqueID claims id in used, appending -2, -3, ... on collision.
func uniqueID(id string, used map[string]struct{}) string {
	candidate := id
	for n := 2; ; n++ {
		if _, taken := used[candidate]; !taken {
			break
		}
		candidate = id + "-" + strconv.Itoa(n)
	}
	used[candidate] = struct{}{}
	return candidate
}

func stripNulls(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
