package mosaic

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

type Config struct {
	Concurrency int                  `hcl:"concurrency,optional"`
	LogFile     string               `hcl:"log_file,optional"`
	Outputs     []*OutputConfigBlock `hcl:"output,block"`
	Layers      []*LayerConfigBlock  `hcl:"layer,block"`
	Maps        []*MapConfigBlock    `hcl:"map,block"`
}

type OutputConfigBlock struct {
	Name     string `hcl:"name,label"`
	Path     string `hcl:"path"`
	Manifest bool   `hcl:"manifest,optional"`
}

type LayerConfigBlock struct {
	Name    string          `hcl:"name,label"`
	Shader  string          `hcl:"shader"`
	Opacity float64         `hcl:"opacity,optional"`
	Options map[string]bool `hcl:"options,optional"`
}

// GetBool returns the named option, or def when it is not set.
func (l *LayerConfigBlock) GetBool(name string, def bool) bool {
	if v, ok := l.Options[name]; ok {
		return v
	}
	return def
}

type MapConfigBlock struct {
	Name      string             `hcl:"name,label"`
	Output    string             `hcl:"output"`
	Path      string             `hcl:"path"`
	Cache     string             `hcl:"cache,optional"`
	Palette   string             `hcl:"palette,optional"`
	Layers    []string           `hcl:"layers"`
	CacheMode string             `hcl:"cache_mode,optional"`
	Bounds    *BoundsConfigBlock `hcl:"bounds,block"`
}

type BoundsConfigBlock struct {
	MinX int `hcl:"min_x"`
	MinZ int `hcl:"min_z"`
	MaxX int `hcl:"max_x"`
	MaxZ int `hcl:"max_z"`
}

func (b *BoundsConfigBlock) Bounds() *Bounds {
	if b == nil {
		return nil
	}
	bounds := NewBounds(RegionCoord{X: b.MinX, Z: b.MinZ}, RegionCoord{X: b.MaxX, Z: b.MaxZ})
	return &bounds
}

var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name: "name",
			Type: cty.String,
		},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	evalCtx := newHCLEvalContext()
	err := hclsimple.DecodeFile(path, evalCtx, &cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	outputs := map[string]struct{}{}
	for _, output := range c.Outputs {
		outputs[output.Name] = struct{}{}
	}

	layers := map[string]struct{}{}
	for _, layer := range c.Layers {
		layers[layer.Name] = struct{}{}
	}

	for _, m := range c.Maps {
		if _, ok := outputs[m.Output]; !ok {
			return fmt.Errorf("map '%s' references unknown output '%s'", m.Name, m.Output)
		}
		for _, layer := range m.Layers {
			if _, ok := layers[layer]; !ok {
				return fmt.Errorf("map '%s' references unknown layer '%s'", m.Name, layer)
			}
		}
		if _, err := ParseCacheMode(m.CacheMode); err != nil {
			return fmt.Errorf("map '%s': %w", m.Name, err)
		}
	}
	return nil
}
