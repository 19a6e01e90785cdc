package llm

import "testing"

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", `{"monday": {}}`, `{"monday": {}}`},
		{"JSONFence", "```json\n{\"monday\": {}}\n```", `{"monday": {}}`},
		{"BareFence", "```\n{\"a\": 1}\n```  ", `{"a": 1}`},
		{"Whitespace", "\n  {\"a\": 1}\n", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.in); got != tt.want {
				t.Errorf("CleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
