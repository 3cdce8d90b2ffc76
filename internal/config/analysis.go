// Package config loads sensitivity run configurations from JSON or YAML.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/sensitivity/internal/fsutil"
	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// ExampleConfigPath is the sample configuration shipped with the repository.
const ExampleConfigPath = "config/analysis.example.yaml"

// maxFileSize bounds configuration files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// InputConfig declares one input and its candidate values. Exactly one of
// Values and Range is set. Range accepts "min:max:step" or a comma
// separated list.
type InputConfig struct {
	Name   string  `json:"name" yaml:"name"`
	Values []any   `json:"values,omitempty" yaml:"values,omitempty"`
	Range  *string `json:"range,omitempty" yaml:"range,omitempty"`
	Type   string  `json:"type,omitempty" yaml:"type,omitempty"` // float64, int, int64, bool, string
}

// OutputConfig names the artifacts a run writes. Empty paths are skipped.
type OutputConfig struct {
	CSV      *string `json:"csv,omitempty" yaml:"csv,omitempty"`
	HTML     *string `json:"html,omitempty" yaml:"html,omitempty"`
	XLSX     *string `json:"xlsx,omitempty" yaml:"xlsx,omitempty"`
	Heatmap  *string `json:"heatmap,omitempty" yaml:"heatmap,omitempty"`
	Figure   *string `json:"figure,omitempty" yaml:"figure,omitempty"` // .png, .svg or .pdf
	Terminal *bool   `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// AnalysisConfig is the root configuration of a sensitivity run.
type AnalysisConfig struct {
	Title *string `json:"title,omitempty" yaml:"title,omitempty"`

	// Target function: a registered model or an external command.
	Model          *string        `json:"model,omitempty" yaml:"model,omitempty"`
	Command        *string        `json:"command,omitempty" yaml:"command,omitempty"`
	CommandTimeout *string        `json:"command_timeout,omitempty" yaml:"command_timeout,omitempty"` // duration string like "30s"
	Fixed          map[string]any `json:"fixed,omitempty" yaml:"fixed,omitempty"`

	Inputs []InputConfig `json:"inputs" yaml:"inputs"`

	// Presentation
	ResultName    *string           `json:"result_name,omitempty" yaml:"result_name,omitempty"`
	AggFunc       *string           `json:"agg_func,omitempty" yaml:"agg_func,omitempty"`
	ReverseColors *bool             `json:"reverse_colors,omitempty" yaml:"reverse_colors,omitempty"`
	GridSize      *int              `json:"grid_size,omitempty" yaml:"grid_size,omitempty"`
	ColorMap      *string           `json:"color_map,omitempty" yaml:"color_map,omitempty"`
	Labels        map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	NumFmt        *string           `json:"num_fmt,omitempty" yaml:"num_fmt,omitempty"`

	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`

	Outputs OutputConfig `json:"outputs" yaml:"outputs"`

	baseDir string
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a .json, .yaml or .yml
// file. Omitted fields fall back to the Get* defaults.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseAnalysisConfig(data, ext)
	if err != nil {
		return nil, err
	}

	// Relative output and command paths resolve against the config file.
	cfg.baseDir = filepath.Dir(cleanPath)
	return cfg, nil
}

// ParseAnalysisConfig checks configuration bytes against the schema, then
// decodes and validates them. ext selects the format (".json", ".yaml" or
// ".yml").
func ParseAnalysisConfig(data []byte, ext string) (*AnalysisConfig, error) {
	if err := ValidateSchema(data, ext); err != nil {
		return nil, err
	}

	cfg := EmptyAnalysisConfig()
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	hasModel := c.Model != nil && *c.Model != ""
	hasCommand := c.Command != nil && strings.TrimSpace(*c.Command) != ""
	if hasModel == hasCommand {
		return fmt.Errorf("exactly one of model or command must be set")
	}

	if c.CommandTimeout != nil && *c.CommandTimeout != "" {
		d, err := time.ParseDuration(*c.CommandTimeout)
		if err != nil {
			return fmt.Errorf("invalid command_timeout '%s': %w", *c.CommandTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("command_timeout must be non-negative, got %s", d)
		}
	}

	if len(c.Inputs) == 0 {
		return fmt.Errorf("at least one input required")
	}
	seen := make(map[string]bool, len(c.Inputs))
	for i, in := range c.Inputs {
		if in.Name == "" {
			return fmt.Errorf("inputs[%d]: name required", i)
		}
		if seen[in.Name] {
			return fmt.Errorf("inputs[%d]: duplicate input %q", i, in.Name)
		}
		seen[in.Name] = true
		if (in.Range != nil) == (len(in.Values) > 0) {
			return fmt.Errorf("input %q: exactly one of values or range must be set", in.Name)
		}
		if _, err := in.Parse(); err != nil {
			return err
		}
		if _, ok := c.Fixed[in.Name]; ok {
			return fmt.Errorf("input %q is also a fixed argument", in.Name)
		}
	}

	if c.GridSize != nil && *c.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive, got %d", *c.GridSize)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.ResultName != nil && *c.ResultName == "" {
		return fmt.Errorf("result_name must not be empty")
	}
	if _, err := sensitivity.DefaultAggregators().Lookup(c.GetAggFunc()); err != nil {
		return err
	}
	if _, err := render.NewGradient(c.GetColorMap(), c.GetReverseColors()); err != nil {
		return err
	}
	if err := render.CheckNumFmt(c.GetNumFmt()); err != nil {
		return err
	}
	if c.Outputs.Figure != nil && *c.Outputs.Figure != "" {
		if _, err := render.FigureFormat(fsutil.TrimCompression(*c.Outputs.Figure)); err != nil {
			return err
		}
		if len(c.Inputs) < 2 {
			return fmt.Errorf("figure output needs at least two inputs, got %d", len(c.Inputs))
		}
	}
	return nil
}

// Parse returns the candidate values of the input, coerced to its type.
func (in InputConfig) Parse() ([]any, error) {
	if in.Range != nil {
		vals, err := sensitivity.ParseValues(*in.Range, in.Type)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		return vals, nil
	}
	if in.Type == "" {
		return append([]any(nil), in.Values...), nil
	}
	out := make([]any, len(in.Values))
	for i, v := range in.Values {
		cv, err := sensitivity.CoerceValue(v, in.Type)
		if err != nil {
			return nil, fmt.Errorf("input %q value %d: %w", in.Name, i, err)
		}
		out[i] = cv
	}
	return out, nil
}

// InputSpec builds the ordered set of swept inputs.
func (c *AnalysisConfig) InputSpec() (*sensitivity.InputSpec, error) {
	params := make([]sensitivity.Param, 0, len(c.Inputs))
	for _, in := range c.Inputs {
		vals, err := in.Parse()
		if err != nil {
			return nil, err
		}
		params = append(params, sensitivity.Param{Name: in.Name, Values: vals})
	}
	return sensitivity.NewInputSpec(params...)
}

// Options returns the session options described by the configuration. The
// caller supplies the fixed arguments, parameters and observer that depend
// on the chosen model.
func (c *AnalysisConfig) Options() (sensitivity.Options, error) {
	agg, err := sensitivity.DefaultAggregators().Lookup(c.GetAggFunc())
	if err != nil {
		return sensitivity.Options{}, err
	}
	return sensitivity.Options{
		ResultName:    c.GetResultName(),
		Agg:           agg,
		ReverseColors: c.GetReverseColors(),
		GridSize:      c.GetGridSize(),
		ColorMap:      c.GetColorMap(),
		Labels:        c.Labels,
		NumFmt:        c.GetNumFmt(),
		Workers:       c.GetWorkers(),
	}, nil
}

// ResolvePath resolves p against the directory of the loaded config file.
// Absolute paths and configs parsed from bytes are returned unchanged.
func (c *AnalysisConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// GetTitle returns the title or the default.
func (c *AnalysisConfig) GetTitle() string {
	if c.Title == nil || *c.Title == "" {
		return "Sensitivity analysis"
	}
	return *c.Title
}

// GetCommandTimeout parses and returns the CommandTimeout. Zero means no
// timeout.
func (c *AnalysisConfig) GetCommandTimeout() time.Duration {
	if c.CommandTimeout == nil || *c.CommandTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.CommandTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetResultName returns the result_name value or the default.
func (c *AnalysisConfig) GetResultName() string {
	if c.ResultName == nil {
		return sensitivity.DefaultResultName
	}
	return *c.ResultName
}

// GetAggFunc returns the agg_func value or the default.
func (c *AnalysisConfig) GetAggFunc() string {
	if c.AggFunc == nil || *c.AggFunc == "" {
		return sensitivity.DefaultAggregator
	}
	return *c.AggFunc
}

// GetReverseColors returns the reverse_colors value or the default.
func (c *AnalysisConfig) GetReverseColors() bool {
	if c.ReverseColors == nil {
		return false
	}
	return *c.ReverseColors
}

// GetGridSize returns the grid_size value or the default.
func (c *AnalysisConfig) GetGridSize() int {
	if c.GridSize == nil {
		return sensitivity.DefaultGridSize
	}
	return *c.GridSize
}

// GetColorMap returns the color_map value or the default.
func (c *AnalysisConfig) GetColorMap() string {
	if c.ColorMap == nil || *c.ColorMap == "" {
		return sensitivity.DefaultColorMap
	}
	return *c.ColorMap
}

// GetNumFmt returns the num_fmt value or the default.
func (c *AnalysisConfig) GetNumFmt() string {
	if c.NumFmt == nil || *c.NumFmt == "" {
		return render.DefaultNumFmt
	}
	return *c.NumFmt
}

// GetWorkers returns the workers value or the default of one.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return 1
	}
	return *c.Workers
}

// GetTerminal reports whether the styled tables are printed to stdout.
func (c *AnalysisConfig) GetTerminal() bool {
	if c.Outputs.Terminal == nil {
		return true
	}
	return *c.Outputs.Terminal
}
