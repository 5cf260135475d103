package core

import (
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/agent/locale"
	"github.com/mohammad-safakhou/researcher/internal/planner"
	"github.com/mohammad-safakhou/researcher/provider"
)

// ResponderInput is everything the responder needs to brief the answering model.
type ResponderInput struct {
	Type             string
	Plan             planner.ToolPlan
	Steps            []ExecutedStep
	Summary          ExecutionSummary
	Localization     locale.Localization
	FinalInstruction string
}

// BuildResponder assembles the overview, summary and final-instruction
// messages together with the annotation that describes the run.
func BuildResponder(in ResponderInput) Result {
	loc := in.Localization
	instruction := resolveFinalInstruction(in.FinalInstruction, loc)

	messages := []provider.Message{
		{Role: provider.RoleAssistant, Content: overview(in.Plan.Plan, in.Steps, loc)},
		{Role: provider.RoleAssistant, Content: in.Summary.Summary},
		{Role: provider.RoleSystem, Content: finalInstruction(instruction, in.Summary.Sources, loc)},
	}

	kind := in.Type
	if kind == "" {
		kind = AnnotationToolPlan
	}
	annotation := &Annotation{
		Type:                     kind,
		Language:                 loc.Tag,
		Plan:                     nonNilSteps(in.Plan.Plan),
		ToolInvocations:          nonNilInvocations(in.Plan.ToolInvocations),
		FinalResponseInstruction: instruction,
		ExecutedSteps:            in.Steps,
		Sources:                  in.Summary.Sources,
	}
	if annotation.ExecutedSteps == nil {
		annotation.ExecutedSteps = []ExecutedStep{}
	}
	if annotation.Sources == nil {
		annotation.Sources = []SourceReference{}
	}
	return Result{ToolCallDataAnnotation: annotation, ToolCallMessages: messages}
}

// resolveFinalInstruction swaps the untouched default for the localized one.
func resolveFinalInstruction(instruction string, loc locale.Localization) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" || instruction == DefaultFinalResponseInstruction {
		return loc.DefaultFinalInstruction
	}
	return instruction
}

func overview(plan []planner.PlanStep, steps []ExecutedStep, loc locale.Localization) string {
	var b strings.Builder
	b.WriteString(loc.Overview)
	b.WriteString("\n\n")
	b.WriteString(loc.PlanHeading)
	b.WriteString(":\n")
	if len(plan) == 0 {
		b.WriteString(loc.NoPlan)
	}
	for i, p := range plan {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(p.Step)
		b.WriteString(": ")
		b.WriteString(p.Detail)
	}

	b.WriteString("\n\n")
	b.WriteString(loc.ExecutionHeading)
	b.WriteString(":")
	if len(steps) == 0 {
		b.WriteString("\n")
		b.WriteString(loc.NothingExecuted)
	}
	for _, s := range steps {
		status := loc.StatusSucceeded
		if s.Failed() {
			status = loc.StatusFailed
		}
		b.WriteString("\n- ")
		b.WriteString(s.ID)
		b.WriteString(" (")
		b.WriteString(string(s.Tool))
		b.WriteString("): ")
		b.WriteString(s.Description)
		b.WriteString(" [")
		b.WriteString(status)
		b.WriteString("]")
	}
	return b.String()
}

func finalInstruction(instruction string, sources []SourceReference, loc locale.Localization) string {
	if len(sources) == 0 {
		return instruction + "\n\n" + loc.NoSources
	}
	markers := make([]string, 0, len(sources))
	for _, s := range sources {
		markers = append(markers, s.Marker)
	}
	return instruction + "\n\n" + loc.UseSourcesInstruction(markers)
}

func nonNilSteps(in []planner.PlanStep) []planner.PlanStep {
	if in == nil {
		return []planner.PlanStep{}
	}
	return in
}

func nonNilInvocations(in []planner.ToolInvocation) []planner.ToolInvocation {
	if in == nil {
		return []planner.ToolInvocation{}
	}
	return in
}
