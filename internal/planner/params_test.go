package planner

import "testing"

func TestValidateParameters(t *testing.T) {
	cases := []struct {
		name    string
		tool    ToolName
		payload string
		wantErr bool
	}{
		{"search ok", ToolSearch, `{"query": "weather", "max_results": 5, "search_depth": "advanced"}`, false},
		{"search domains", ToolSearch, `{"query": "weather", "include_domains": ["bbc.co.uk"]}`, false},
		{"search missing query", ToolSearch, `{}`, true},
		{"search empty query", ToolSearch, `{"query": ""}`, true},
		{"search bad depth", ToolSearch, `{"query": "q", "search_depth": "deep"}`, true},
		{"search too many", ToolSearch, `{"query": "q", "max_results": 50}`, true},
		{"retrieve ok", ToolRetrieve, `{"url": "https://x"}`, false},
		{"retrieve missing", ToolRetrieve, `{}`, true},
		{"retrieve not a url", ToolRetrieve, `{"url": "example"}`, true},
		{"video ok", ToolVideoSearch, `{"query": "cats", "max_results": 3}`, false},
		{"video missing query", ToolVideoSearch, `{"max_results": 3}`, true},
		{"none has no schema", ToolNone, `{}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateParameters(tc.tool, []byte(tc.payload))
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateParameters() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
