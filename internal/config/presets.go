package config

import "sort"

// Presets are ready-to-run plant layouts. GetPreset completes them
// with Normalize, so entries list only what differs from the defaults.
var Presets = map[string]*Config{
	"default": {
		Name: "default",
		Time: TimeConfig{End: 24, Dt: 0.1},
		Nodes: []NodeConfig{
			{ID: "as1", Kind: "reactor"},
		},
	},
	"plant": {
		Name: "plant",
		Time: TimeConfig{End: 48, Dt: 0.1},
		Nodes: []NodeConfig{
			{ID: "as1", Kind: "reactor"},
			{ID: "settler1", Kind: "settler"},
		},
		Edges: []EdgeConfig{
			{Source: "influent", Target: "as1", Fraction: 1.0},
			{Source: "as1", Target: "settler1", Fraction: 1.0},
			{Source: "settler1", Target: "as1", Fraction: 1.0, Recycle: true},
		},
	},
	"surrogate": {
		Name: "surrogate",
		Time: TimeConfig{End: 24, Dt: 0.1},
		Nodes: []NodeConfig{
			{ID: "ml1", Kind: "surrogate"},
		},
	},
	"diurnal": {
		Name: "diurnal",
		Time: TimeConfig{End: 72, Dt: 0.1},
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
			Diurnal:     0.3,
		},
		Nodes: []NodeConfig{
			{ID: "as1", Kind: "reactor"},
			{ID: "settler1", Kind: "settler"},
		},
		Edges: []EdgeConfig{
			{Source: "influent", Target: "as1", Fraction: 1.0},
			{Source: "as1", Target: "settler1", Fraction: 1.0},
			{Source: "settler1", Target: "as1", Fraction: 1.0, Recycle: true},
		},
	},
}

// GetPreset returns a normalized copy of a preset, nil when unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	if cfg.Influent.Flowrate == 0 {
		cfg.Influent = DefaultConfig().Influent
	}
	cfg.Normalize()
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
