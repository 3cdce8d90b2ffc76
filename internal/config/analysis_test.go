package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

func validConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Model: ptrString("sum"),
		Inputs: []InputConfig{
			{Name: "a", Values: []any{1.0, 2.0}},
			{Name: "b", Range: ptrString("0:1:0.5")},
		},
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyAnalysisConfigDefaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()

	if got := cfg.GetResultName(); got != sensitivity.DefaultResultName {
		t.Errorf("GetResultName() = %q, want %q", got, sensitivity.DefaultResultName)
	}
	if got := cfg.GetAggFunc(); got != "mean" {
		t.Errorf("GetAggFunc() = %q, want mean", got)
	}
	if cfg.GetReverseColors() {
		t.Error("GetReverseColors() = true, want false")
	}
	if got := cfg.GetGridSize(); got != 8 {
		t.Errorf("GetGridSize() = %d, want 8", got)
	}
	if got := cfg.GetColorMap(); got != "RdYlGn" {
		t.Errorf("GetColorMap() = %q, want RdYlGn", got)
	}
	if got := cfg.GetNumFmt(); got != render.DefaultNumFmt {
		t.Errorf("GetNumFmt() = %q, want %q", got, render.DefaultNumFmt)
	}
	if got := cfg.GetWorkers(); got != 1 {
		t.Errorf("GetWorkers() = %d, want 1", got)
	}
	if got := cfg.GetCommandTimeout(); got != 0 {
		t.Errorf("GetCommandTimeout() = %v, want 0", got)
	}
	if !cfg.GetTerminal() {
		t.Error("GetTerminal() = false, want true")
	}
	if got := cfg.GetTitle(); got != "Sensitivity analysis" {
		t.Errorf("GetTitle() = %q", got)
	}
}

func TestLoadAnalysisConfigYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
title: Loan
model: loan_payment
fixed:
  principal: 100000
inputs:
  - name: annual_rate
    range: "0.03:0.05:0.01"
  - name: years
    values: [15, 30]
    type: int
result_name: payment
agg_func: max
reverse_colors: true
grid_size: 5
color_map: viridis
num_fmt: "%.2f"
labels:
  annual_rate: Rate
workers: 2
command_timeout: 10s
outputs:
  terminal: false
  csv: out/loan.csv
  figure: out/loan.pdf
`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetTitle() != "Loan" || cfg.GetResultName() != "payment" || cfg.GetAggFunc() != "max" {
		t.Errorf("unexpected scalars: %q %q %q", cfg.GetTitle(), cfg.GetResultName(), cfg.GetAggFunc())
	}
	if !cfg.GetReverseColors() || cfg.GetGridSize() != 5 || cfg.GetColorMap() != "viridis" {
		t.Errorf("unexpected style: %v %d %q", cfg.GetReverseColors(), cfg.GetGridSize(), cfg.GetColorMap())
	}
	if cfg.GetWorkers() != 2 || cfg.GetCommandTimeout() != 10*time.Second || cfg.GetTerminal() {
		t.Errorf("unexpected run settings: %d %v %v", cfg.GetWorkers(), cfg.GetCommandTimeout(), cfg.GetTerminal())
	}
	if got := cfg.ResolvePath(*cfg.Outputs.CSV); got != filepath.Join(filepath.Dir(path), "out/loan.csv") {
		t.Errorf("ResolvePath() = %q", got)
	}

	spec, err := cfg.InputSpec()
	if err != nil {
		t.Fatalf("InputSpec() error = %v", err)
	}
	want := []sensitivity.Param{
		{Name: "annual_rate", Values: []any{0.03, 0.04, 0.05}},
		{Name: "years", Values: []any{15, 30}},
	}
	if diff := cmp.Diff(want, spec.Params()); diff != "" {
		t.Errorf("InputSpec() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"annual_rate": "Rate"}, cfg.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if cfg.Fixed["principal"] != 100000 {
		t.Errorf("fixed principal = %#v", cfg.Fixed["principal"])
	}
}

func TestLoadAnalysisConfigJSON(t *testing.T) {
	path := writeFile(t, "run.json", `{
  "command": "python3 model.py",
  "inputs": [
    {"name": "flag", "values": ["true", "false"], "type": "bool"},
    {"name": "x", "values": [1, 2.5]}
  ]
}`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	spec, err := cfg.InputSpec()
	if err != nil {
		t.Fatalf("InputSpec() error = %v", err)
	}
	want := []sensitivity.Param{
		{Name: "flag", Values: []any{true, false}},
		{Name: "x", Values: []any{1.0, 2.5}},
	}
	if diff := cmp.Diff(want, spec.Params()); diff != "" {
		t.Errorf("InputSpec() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAnalysisConfigErrors(t *testing.T) {
	if _, err := LoadAnalysisConfig("/nonexistent/path/to/config.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
	if _, err := LoadAnalysisConfig(writeFile(t, "run.toml", "model = 'sum'")); err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}
	if _, err := LoadAnalysisConfig(writeFile(t, "bad.json", `{"model": `)); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
	if _, err := LoadAnalysisConfig(writeFile(t, "bad.yaml", "inputs: [")); err == nil {
		t.Error("Expected error when loading invalid YAML, got nil")
	}

	big := make([]byte, maxFileSize+1)
	for i := range big {
		big[i] = ' '
	}
	if _, err := LoadAnalysisConfig(writeFile(t, "big.json", string(big))); err == nil {
		t.Error("Expected error for oversized file, got nil")
	}
}

func TestLoadExampleConfigs(t *testing.T) {
	for _, name := range []string{ExampleConfigPath, "config/npv.example.json"} {
		t.Run(filepath.Base(name), func(t *testing.T) {
			cfg, err := LoadAnalysisConfig(filepath.Join("..", "..", name))
			if err != nil {
				t.Fatalf("LoadAnalysisConfig(%s) error = %v", name, err)
			}
			if _, err := cfg.InputSpec(); err != nil {
				t.Errorf("InputSpec() error = %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AnalysisConfig)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *AnalysisConfig) {}},
		{name: "command instead of model", mutate: func(c *AnalysisConfig) {
			c.Model = nil
			c.Command = ptrString("./model")
		}},
		{name: "model and command", mutate: func(c *AnalysisConfig) { c.Command = ptrString("./model") }, wantErr: true},
		{name: "no target", mutate: func(c *AnalysisConfig) { c.Model = nil }, wantErr: true},
		{name: "invalid timeout", mutate: func(c *AnalysisConfig) { c.CommandTimeout = ptrString("soon") }, wantErr: true},
		{name: "negative timeout", mutate: func(c *AnalysisConfig) { c.CommandTimeout = ptrString("-1s") }, wantErr: true},
		{name: "no inputs", mutate: func(c *AnalysisConfig) { c.Inputs = nil }, wantErr: true},
		{name: "unnamed input", mutate: func(c *AnalysisConfig) { c.Inputs[0].Name = "" }, wantErr: true},
		{name: "duplicate input", mutate: func(c *AnalysisConfig) { c.Inputs[1].Name = "a" }, wantErr: true},
		{name: "values and range", mutate: func(c *AnalysisConfig) { c.Inputs[0].Range = ptrString("1:2:1") }, wantErr: true},
		{name: "neither values nor range", mutate: func(c *AnalysisConfig) { c.Inputs[0].Values = nil }, wantErr: true},
		{name: "bad range", mutate: func(c *AnalysisConfig) { c.Inputs[1].Range = ptrString("1:0:1") }, wantErr: true},
		{name: "bad coercion", mutate: func(c *AnalysisConfig) { c.Inputs[0].Type = sensitivity.TypeBool; c.Inputs[0].Values = []any{"maybe"} }, wantErr: true},
		{name: "fixed shadows input", mutate: func(c *AnalysisConfig) { c.Fixed = map[string]any{"a": 1.0} }, wantErr: true},
		{name: "fixed extra argument", mutate: func(c *AnalysisConfig) { c.Fixed = map[string]any{"c": 1.0} }},
		{name: "zero grid", mutate: func(c *AnalysisConfig) { c.GridSize = ptrInt(0) }, wantErr: true},
		{name: "negative workers", mutate: func(c *AnalysisConfig) { c.Workers = ptrInt(-2) }, wantErr: true},
		{name: "empty result name", mutate: func(c *AnalysisConfig) { c.ResultName = ptrString("") }, wantErr: true},
		{name: "unknown aggregation", mutate: func(c *AnalysisConfig) { c.AggFunc = ptrString("mode") }, wantErr: true},
		{name: "unknown color map", mutate: func(c *AnalysisConfig) { c.ColorMap = ptrString("rainbow") }, wantErr: true},
		{name: "reversed color map", mutate: func(c *AnalysisConfig) {
			c.ColorMap = ptrString("Blues_r")
			c.ReverseColors = ptrBool(true)
		}},
		{name: "bad number format", mutate: func(c *AnalysisConfig) { c.NumFmt = ptrString("%d %d") }, wantErr: true},
		{name: "bad figure format", mutate: func(c *AnalysisConfig) { c.Outputs.Figure = ptrString("plot.gif") }, wantErr: true},
		{name: "compressed figure", mutate: func(c *AnalysisConfig) { c.Outputs.Figure = ptrString("plot.svg.gz") }},
		{name: "compressed bad figure", mutate: func(c *AnalysisConfig) { c.Outputs.Figure = ptrString("plot.gif.zst") }, wantErr: true},
		{name: "figure with one input", mutate: func(c *AnalysisConfig) {
			c.Inputs = c.Inputs[:1]
			c.Outputs.Figure = ptrString("plot.svg")
		}, wantErr: true},
		{name: "one input without figure", mutate: func(c *AnalysisConfig) { c.Inputs = c.Inputs[:1] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigurationErrors(t *testing.T) {
	cfg := validConfig()
	cfg.AggFunc = ptrString("mode")
	var cfgErr *sensitivity.ConfigurationError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) {
		t.Errorf("Validate() error = %v, want *ConfigurationError", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := validConfig()
	cfg.ResultName = ptrString("score")
	cfg.AggFunc = ptrString("sum")
	cfg.NumFmt = ptrString("%.1f")
	cfg.Workers = ptrInt(3)
	cfg.Labels = map[string]string{"a": "Alpha"}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.ResultName != "score" || opts.NumFmt != "%.1f" || opts.Workers != 3 || opts.GridSize != 8 {
		t.Errorf("Options() = %+v", opts)
	}
	if got, _ := opts.Agg([]float64{1, 2, 3}); got != 6 {
		t.Errorf("Options().Agg = %v, want sum 6", got)
	}
	if opts.Labels["a"] != "Alpha" {
		t.Errorf("Options().Labels = %v", opts.Labels)
	}
}

func TestResolvePath(t *testing.T) {
	cfg := validConfig()
	if got := cfg.ResolvePath("out.csv"); got != "out.csv" {
		t.Errorf("ResolvePath() without base = %q", got)
	}
	cfg.baseDir = "/runs"
	if got := cfg.ResolvePath("out.csv"); got != "/runs/out.csv" {
		t.Errorf("ResolvePath() = %q", got)
	}
	if got := cfg.ResolvePath("/abs/out.csv"); got != "/abs/out.csv" {
		t.Errorf("ResolvePath() absolute = %q", got)
	}
}
