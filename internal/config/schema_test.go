package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		body     string
		wantLocs []string // substrings expected in the problems
	}{
		{
			name: "valid yaml",
			ext:  ".yaml",
			body: "model: sum\ninputs:\n  - name: a\n    values: [1, 2]\n    type: int\n",
		},
		{
			name: "valid json",
			ext:  ".json",
			body: `{"command": "./m", "inputs": [{"name": "a", "range": "0:1:0.5"}], "outputs": {"csv": "a.csv"}}`,
		},
		{
			name:     "misspelled key",
			ext:      ".yaml",
			body:     "modle: sum\ninputs:\n  - name: a\n    values: [1]\n",
			wantLocs: []string{"modle"},
		},
		{
			name:     "wrong type",
			ext:      ".yaml",
			body:     "model: sum\ngrid_size: big\ninputs:\n  - name: a\n    values: [1]\n",
			wantLocs: []string{"/grid_size"},
		},
		{
			name:     "unnamed input",
			ext:      ".json",
			body:     `{"model": "sum", "inputs": [{"values": [1]}]}`,
			wantLocs: []string{"/inputs/0"},
		},
		{
			name:     "unknown value type",
			ext:      ".yaml",
			body:     "model: sum\ninputs:\n  - name: a\n    values: [1]\n    type: float\n",
			wantLocs: []string{"/inputs/0/type"},
		},
		{
			name:     "unknown output",
			ext:      ".yaml",
			body:     "model: sum\ninputs:\n  - name: a\n    values: [1]\noutputs:\n  pdf: out.pdf\n",
			wantLocs: []string{"pdf"},
		},
		{
			name:     "missing inputs",
			ext:      ".json",
			body:     `{"model": "sum"}`,
			wantLocs: []string{"inputs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.body), tt.ext)
			if len(tt.wantLocs) == 0 {
				if err != nil {
					t.Fatalf("ValidateSchema() error = %v", err)
				}
				return
			}
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("ValidateSchema() error = %v, want *SchemaError", err)
			}
			joined := strings.Join(schemaErr.Problems, "\n")
			for _, want := range tt.wantLocs {
				if !strings.Contains(joined, want) {
					t.Errorf("problems %q do not mention %q", joined, want)
				}
			}
		})
	}
}

func TestValidateSchema_SyntaxErrors(t *testing.T) {
	var schemaErr *SchemaError
	for ext, body := range map[string]string{".json": `{"model": `, ".yaml": "inputs: ["} {
		err := ValidateSchema([]byte(body), ext)
		if err == nil {
			t.Errorf("%s: expected a parse error", ext)
		}
		if errors.As(err, &schemaErr) {
			t.Errorf("%s: syntax error reported as schema error", ext)
		}
	}
	if err := ValidateSchema([]byte("{}"), ".toml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadAnalysisConfig_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "typo.yaml", "model: sum\nresult: y\ninputs:\n  - name: a\n    values: [1]\n")
	_, err := LoadAnalysisConfig(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("LoadAnalysisConfig() error = %v, want *SchemaError", err)
	}
}
