package provider

import "testing"

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"prose around", `Here is the plan: {"a":"}{"} thanks`, `{"a":"}{"}`, false},
		{"nested", `x {"a":{"b":[1,2]}} y`, `{"a":{"b":[1,2]}}`, false},
		{"none", `no json here`, "", true},
		{"unterminated", `{"a":1`, "", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractJSONObject(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractJSONObject() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Fatalf("ExtractJSONObject() = %s, want %s", got, tt.want)
			}
		})
	}
}
