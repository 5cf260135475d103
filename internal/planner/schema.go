package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolName identifies one of the research tools a plan may invoke.
type ToolName string

const (
	ToolSearch      ToolName = "search"
	ToolRetrieve    ToolName = "retrieve"
	ToolVideoSearch ToolName = "videoSearch"
	ToolNone        ToolName = "none"
)

// Executable reports whether the tool maps to a real backend.
func (t ToolName) Executable() bool {
	switch t {
	case ToolSearch, ToolRetrieve, ToolVideoSearch:
		return true
	default:
		return false
	}
}

const (
	MaxPlanSteps   = 6
	MaxInvocations = 6
)

// PlanStep is one natural-language entry of the research plan.
type PlanStep struct {
	Step   string `json:"step" jsonschema:"description=Short title of the research step in the user's language"`
	Detail string `json:"detail" jsonschema:"description=What the step does and why it helps answer the user"`
}

// ToolInvocation is one planned call to a research tool.
type ToolInvocation struct {
	ID          string         `json:"id,omitempty" jsonschema:"description=Short identifier for the invocation"`
	Tool        ToolName       `json:"tool" jsonschema:"enum=search,enum=retrieve,enum=videoSearch,enum=none"`
	Description string         `json:"description" jsonschema:"description=What this call is meant to find out"`
	Parameters  map[string]any `json:"parameters,omitempty" jsonschema:"description=Tool parameters (search and videoSearch take query; retrieve takes url)"`
}

// ToolPlan is the structured output of the planning model.
type ToolPlan struct {
	Plan                     []PlanStep       `json:"plan" jsonschema:"maxItems=6"`
	ToolInvocations          []ToolInvocation `json:"toolInvocations" jsonschema:"maxItems=6"`
	FinalResponseInstruction string           `json:"finalResponseInstruction,omitempty" jsonschema:"description=Instruction for the model that writes the final answer"`
}

var (
	toolPlanOnce      sync.Once
	toolPlanSchemaRaw json.RawMessage
	toolPlanSchema    *jsonschema.Schema
	toolPlanErr       error
)

func compileToolPlanSchema() {
	r := &invopop.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Anonymous:      true,
	}
	raw, err := json.Marshal(r.Reflect(&ToolPlan{}))
	if err != nil {
		toolPlanErr = fmt.Errorf("marshal tool plan schema: %w", err)
		return
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tool_plan.json", bytes.NewReader(raw)); err != nil {
		toolPlanErr = fmt.Errorf("add schema resource: %w", err)
		return
	}
	schema, err := compiler.Compile("tool_plan.json")
	if err != nil {
		toolPlanErr = fmt.Errorf("compile tool plan schema: %w", err)
		return
	}
	toolPlanSchemaRaw = raw
	toolPlanSchema = schema
}

// ToolPlanSchema returns the JSON Schema handed to the model for structured output.
func ToolPlanSchema() (json.RawMessage, error) {
	toolPlanOnce.Do(compileToolPlanSchema)
	return toolPlanSchemaRaw, toolPlanErr
}

// DecodeToolPlan validates raw model output against the tool plan schema and decodes it.
func DecodeToolPlan(data []byte) (ToolPlan, error) {
	toolPlanOnce.Do(compileToolPlanSchema)
	if toolPlanErr != nil {
		return ToolPlan{}, toolPlanErr
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ToolPlan{}, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if err := toolPlanSchema.Validate(doc); err != nil {
		return ToolPlan{}, fmt.Errorf("plan does not match schema: %w", err)
	}
	var plan ToolPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return ToolPlan{}, fmt.Errorf("decode plan: %w", err)
	}
	return plan, nil
}
