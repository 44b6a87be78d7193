// Package config defines the plant layout file format: simulation
// window, influent characterisation, node and edge lists, solver
// selection. Loading overlays the file on defaults; a configuration
// without edges is completed into a feed-forward chain.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.1 // h
	DefaultDuration    = 24.0
	DefaultFlowrate    = 1000.0
	DefaultTemperature = 20.0
	DefaultSubsteps    = 4

	DefaultVolume         = 5000.0
	DefaultDO             = 2.0
	DefaultWasteRatio     = 0.01
	DefaultArea           = 1000.0
	DefaultDepth          = 4.0
	DefaultLayers         = 10
	DefaultUnderflowRatio = 0.5
	DefaultFeedRatio      = 0.5
	DefaultSRTDays        = 12.0
)

type Config struct {
	Name     string         `yaml:"name"`
	Time     TimeConfig     `yaml:"time"`
	Influent InfluentConfig `yaml:"influent"`
	Nodes    []NodeConfig   `yaml:"nodes"`
	Edges    []EdgeConfig   `yaml:"edges"`
	Solver   SolverConfig   `yaml:"solver"`
}

type TimeConfig struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Dt    float64 `yaml:"dt"`
}

// InfluentConfig is the raw characterisation of the plant inflow in
// g/m3 (alkalinity in mol/m3). Diurnal is a relative amplitude; zero
// keeps the inflow constant.
type InfluentConfig struct {
	Flowrate    float64 `yaml:"flowrate"`
	Temperature float64 `yaml:"temperature"`
	COD         float64 `yaml:"cod"`
	TSS         float64 `yaml:"tss"`
	TKN         float64 `yaml:"tkn"`
	NH4         float64 `yaml:"nh4"`
	NO3         float64 `yaml:"no3"`
	PO4         float64 `yaml:"po4"`
	Alkalinity  float64 `yaml:"alkalinity"`
	Diurnal     float64 `yaml:"diurnal,omitempty"`
}

// Composition returns the measured raw keys.
func (i InfluentConfig) Composition() map[string]float64 {
	comp := make(map[string]float64)
	put := func(k string, v float64) {
		if v > 0 {
			comp[k] = v
		}
	}
	put("cod", i.COD)
	put("tss", i.TSS)
	put("tkn", i.TKN)
	put("nh4", i.NH4)
	put("no3", i.NO3)
	put("po4", i.PO4)
	put("alkalinity", i.Alkalinity)
	return comp
}

type NodeConfig struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
	// Model selects the kinetic, settling or surrogate model; empty
	// picks the kind's default.
	Model string `yaml:"model,omitempty"`

	Volume     float64 `yaml:"volume,omitempty"`
	DO         float64 `yaml:"do,omitempty"`
	Aeration   string  `yaml:"aeration,omitempty"`
	WasteRatio float64 `yaml:"waste_ratio,omitempty"`

	Area           float64 `yaml:"area,omitempty"`
	Depth          float64 `yaml:"depth,omitempty"`
	Layers         int     `yaml:"layers,omitempty"`
	UnderflowRatio float64 `yaml:"underflow_ratio,omitempty"`
	FeedRatio      float64 `yaml:"feed_ratio,omitempty"`

	SRTDays float64 `yaml:"srt_days,omitempty"`

	Params map[string]any `yaml:"params,omitempty"`
}

type EdgeConfig struct {
	Source   string  `yaml:"source"`
	Target   string  `yaml:"target"`
	Fraction float64 `yaml:"fraction"`
	Recycle  bool    `yaml:"recycle,omitempty"`
}

type SolverConfig struct {
	Method   string `yaml:"method"`
	Substeps int    `yaml:"substeps"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "plant",
		Time: TimeConfig{Start: 0, End: DefaultDuration, Dt: DefaultDt},
		Influent: InfluentConfig{
			Flowrate:    DefaultFlowrate,
			Temperature: DefaultTemperature,
			COD:         500,
			TSS:         250,
			TKN:         40,
			NH4:         28,
			NO3:         0.5,
			PO4:         8,
			Alkalinity:  6,
		},
		Nodes: []NodeConfig{
			{ID: "as1", Kind: "reactor", Model: "asm1", Volume: DefaultVolume,
				DO: DefaultDO, Aeration: "fixed", WasteRatio: DefaultWasteRatio},
		},
		Solver: SolverConfig{Method: "rk4", Substeps: DefaultSubsteps},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy safe to mutate independently.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Nodes = make([]NodeConfig, len(c.Nodes))
	copy(cp.Nodes, c.Nodes)
	for i := range cp.Nodes {
		if c.Nodes[i].Params != nil {
			p := make(map[string]any, len(c.Nodes[i].Params))
			for k, v := range c.Nodes[i].Params {
				p[k] = v
			}
			cp.Nodes[i].Params = p
		}
	}
	cp.Edges = append([]EdgeConfig(nil), c.Edges...)
	return &cp
}

// Normalize fills omitted values and completes an edge-less layout
// into a feed-forward chain in declaration order.
func (c *Config) Normalize() {
	if c.Name == "" {
		c.Name = "plant"
	}
	if c.Solver.Method == "" {
		c.Solver.Method = "rk4"
	}
	if c.Solver.Substeps < 1 {
		c.Solver.Substeps = DefaultSubsteps
	}
	if c.Time.Dt <= 0 {
		c.Time.Dt = DefaultDt
	}

	for i := range c.Nodes {
		n := &c.Nodes[i]
		switch n.Kind {
		case "reactor":
			if n.Volume <= 0 {
				n.Volume = DefaultVolume
			}
			if n.DO <= 0 {
				n.DO = DefaultDO
			}
			if n.Aeration == "" {
				n.Aeration = "fixed"
			}
			if n.WasteRatio <= 0 {
				n.WasteRatio = DefaultWasteRatio
			}
			if n.Model == "" {
				n.Model = "asm1"
			}
		case "settler":
			if n.Area <= 0 {
				n.Area = DefaultArea
			}
			if n.Depth <= 0 {
				n.Depth = DefaultDepth
			}
			if n.Layers <= 0 {
				n.Layers = DefaultLayers
			}
			if n.UnderflowRatio <= 0 {
				n.UnderflowRatio = DefaultUnderflowRatio
			}
			if n.FeedRatio <= 0 {
				n.FeedRatio = DefaultFeedRatio
			}
			if n.Model == "" {
				n.Model = "takacs"
			}
		case "surrogate":
			if n.Volume <= 0 {
				n.Volume = DefaultVolume
			}
			if n.SRTDays <= 0 {
				n.SRTDays = DefaultSRTDays
			}
			if n.Model == "" {
				n.Model = "linear"
			}
		}
	}

	if len(c.Edges) == 0 && len(c.Nodes) > 0 {
		prev := "influent"
		for _, n := range c.Nodes {
			c.Edges = append(c.Edges, EdgeConfig{Source: prev, Target: n.ID, Fraction: 1.0})
			prev = n.ID
		}
	}
}
