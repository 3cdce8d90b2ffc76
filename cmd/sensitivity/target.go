package main

import (
	"context"

	"github.com/banshee-data/sensitivity/internal/config"
	"github.com/banshee-data/sensitivity/internal/model"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// target is the function a run evaluates.
type target struct {
	name   string
	fn     sensitivity.Func
	params []string
	fixed  map[string]any
}

// resolveTarget picks the registered model or external command named by
// cfg. Model defaults never shadow swept inputs.
func resolveTarget(ctx context.Context, cfg *config.AnalysisConfig, reg *model.Registry, inputs []string) (*target, error) {
	if cfg.Model != nil && *cfg.Model != "" {
		def, err := reg.Lookup(*cfg.Model)
		if err != nil {
			return nil, err
		}
		fixed := def.FixedArgs(cfg.Fixed)
		for _, name := range inputs {
			delete(fixed, name)
		}
		return &target{name: def.Name, fn: def.Func, params: def.Parameters, fixed: fixed}, nil
	}

	c, err := model.NewCommand(*cfg.Command)
	if err != nil {
		return nil, err
	}
	c.Timeout = cfg.GetCommandTimeout()
	c.Dir = cfg.ResolvePath(".")
	return &target{name: c.Path, fn: c.Func(ctx), fixed: cfg.Fixed}, nil
}
