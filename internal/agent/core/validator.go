package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/planner"
	"go.uber.org/zap"
)

// Search depth values accepted by the search tool.
const (
	SearchDepthBasic    = "basic"
	SearchDepthAdvanced = "advanced"
)

var knownParams = map[planner.ToolName][]string{
	planner.ToolSearch:      {"query", "max_results", "search_depth", "include_domains", "exclude_domains"},
	planner.ToolRetrieve:    {"url"},
	planner.ToolVideoSearch: {"query", "max_results"},
}

// Validator checks planned invocations against the parameter schema of their tool.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a validator. A nil logger disables logging.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger.Named("validator")}
}

// ValidateAll validates each invocation in order and drops (and logs) the ones that fail.
func (v *Validator) ValidateAll(invocations []planner.ToolInvocation) []ValidatedInvocation {
	out := make([]ValidatedInvocation, 0, len(invocations))
	for _, inv := range invocations {
		validated, err := v.Validate(inv)
		if err != nil {
			v.logger.Warn("dropping invocation",
				zap.String("id", inv.ID),
				zap.String("tool", string(inv.Tool)),
				zap.Any("parameters", inv.Parameters),
				zap.Error(err))
			continue
		}
		out = append(out, validated)
	}
	return out
}

// Validate coerces the invocation parameters and checks them against the tool schema.
func (v *Validator) Validate(inv planner.ToolInvocation) (ValidatedInvocation, error) {
	if !inv.Tool.Executable() {
		return ValidatedInvocation{}, fmt.Errorf("tool %q is not executable", inv.Tool)
	}
	coerced := coerceParams(inv.Tool, inv.Parameters)
	raw, err := json.Marshal(coerced)
	if err != nil {
		return ValidatedInvocation{}, fmt.Errorf("encode parameters: %w", err)
	}
	if err := planner.ValidateParameters(inv.Tool, raw); err != nil {
		return ValidatedInvocation{}, err
	}

	var params ToolParams
	switch inv.Tool {
	case planner.ToolSearch:
		var p SearchParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return ValidatedInvocation{}, fmt.Errorf("decode search parameters: %w", err)
		}
		if p.Query == "" {
			return ValidatedInvocation{}, errors.New("search query missing")
		}
		params = p
	case planner.ToolRetrieve:
		var p RetrieveParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return ValidatedInvocation{}, fmt.Errorf("decode retrieve parameters: %w", err)
		}
		if p.URL == "" {
			return ValidatedInvocation{}, errors.New("retrieve url missing")
		}
		params = p
	case planner.ToolVideoSearch:
		var p VideoSearchParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return ValidatedInvocation{}, fmt.Errorf("decode video search parameters: %w", err)
		}
		if p.Query == "" {
			return ValidatedInvocation{}, errors.New("video search query missing")
		}
		params = p
	}
	return ValidatedInvocation{Invocation: inv, Params: params}, nil
}

// coerceParams keeps the keys the tool knows and repairs loosely typed values
// such as numeric strings. An unknown search depth is treated as absent.
func coerceParams(tool planner.ToolName, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for _, key := range knownParams[tool] {
		v, ok := params[key]
		if !ok || v == nil {
			continue
		}
		switch key {
		case "query":
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
		case "url":
			if s, ok := v.(string); ok {
				v = withScheme(strings.TrimSpace(s))
			}
		case "max_results":
			if n, ok := toInt(v); ok {
				v = n
			}
		case "search_depth":
			s, _ := v.(string)
			s = strings.ToLower(strings.TrimSpace(s))
			if s != SearchDepthBasic && s != SearchDepthAdvanced {
				continue
			}
			v = s
		case "include_domains", "exclude_domains":
			v = toDomainList(v)
		}
		out[key] = v
	}
	return out
}

// withScheme prefixes https:// to a bare host link such as "www.example.com/page".
// Anything that does not start with a dotted host is left for the schema to reject.
func withScheme(raw string) string {
	if raw == "" || strings.Contains(raw, "://") || strings.ContainsAny(raw, " \t") {
		return raw
	}
	host, _, _ := strings.Cut(raw, "/")
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return raw
	}
	return "https://" + raw
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toDomainList(v any) any {
	switch list := v.(type) {
	case string:
		parts := strings.Split(list, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				item = strings.TrimSpace(s)
			}
			out = append(out, item)
		}
		return out
	}
	return v
}
