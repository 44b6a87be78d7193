// Package registry maps the names used in configuration files to the
// concrete integrators, kinetic models, aeration modes, and process
// units that implement them.
package registry

import (
	"fmt"
	"sort"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/control"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/process"
	"github.com/plantsim/plantsim/internal/solver"
)

// NodeBuilder constructs a process unit from its config block. The
// integrator is shared across the network; substeps subdivide each
// step for stiff units.
type NodeBuilder func(cfg config.NodeConfig, integ solver.Integrator, substeps int) (process.Node, error)

type Registry struct {
	integrators map[string]func() solver.Integrator
	kinetics    map[string]func(map[string]any) (model.Kinetic, error)
	aeration    map[string]func(setpoint float64) control.Aeration
	nodes       map[string]NodeBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() solver.Integrator),
		kinetics:    make(map[string]func(map[string]any) (model.Kinetic, error)),
		aeration:    make(map[string]func(float64) control.Aeration),
		nodes:       make(map[string]NodeBuilder),
	}

	r.integrators["euler"] = func() solver.Integrator { return solver.NewEuler() }
	r.integrators["rk4"] = func() solver.Integrator { return solver.NewRK4() }
	r.integrators["rk45"] = func() solver.Integrator { return solver.NewRK45() }

	r.kinetics["asm1"] = func(params map[string]any) (model.Kinetic, error) {
		return model.ASM1FromParams(params)
	}

	r.aeration["fixed"] = func(setpoint float64) control.Aeration {
		return control.NewFixedDO(setpoint)
	}
	r.aeration["pid"] = func(setpoint float64) control.Aeration {
		return control.NewPIDAeration(setpoint)
	}

	r.nodes["reactor"] = func(cfg config.NodeConfig, integ solver.Integrator, substeps int) (process.Node, error) {
		kin, err := r.Kinetic(orDefault(cfg.Model, "asm1"), cfg.Params)
		if err != nil {
			return nil, err
		}
		aer, err := r.Aeration(orDefault(cfg.Aeration, "fixed"), cfg.DO)
		if err != nil {
			return nil, err
		}
		spec := process.ReactorSpec{Volume: cfg.Volume, WasteRatio: cfg.WasteRatio}
		return process.NewReactor(cfg.ID, spec, kin, aer, integ, substeps), nil
	}
	r.nodes["settler"] = func(cfg config.NodeConfig, integ solver.Integrator, substeps int) (process.Node, error) {
		if name := orDefault(cfg.Model, "takacs"); name != "takacs" {
			return nil, fmt.Errorf("unknown settling model: %s", name)
		}
		settling, err := model.TakacsFromParams(cfg.Params)
		if err != nil {
			return nil, err
		}
		spec := process.ClarifierSpec{
			Area:           cfg.Area,
			Depth:          cfg.Depth,
			Layers:         cfg.Layers,
			UnderflowRatio: cfg.UnderflowRatio,
			FeedRatio:      cfg.FeedRatio,
		}
		return process.NewClarifier(cfg.ID, spec, settling, integ, substeps), nil
	}
	r.nodes["surrogate"] = func(cfg config.NodeConfig, integ solver.Integrator, substeps int) (process.Node, error) {
		if name := orDefault(cfg.Model, "linear"); name != "linear" {
			return nil, fmt.Errorf("unknown surrogate model: %s", name)
		}
		m, err := model.LinearFromParams(cfg.Params)
		if err != nil {
			return nil, err
		}
		spec := process.SurrogateSpec{Volume: cfg.Volume, SRTDays: cfg.SRTDays}
		return process.NewSurrogate(cfg.ID, spec, m), nil
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (solver.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) Kinetic(name string, params map[string]any) (model.Kinetic, error) {
	fn, ok := r.kinetics[name]
	if !ok {
		return nil, fmt.Errorf("unknown kinetic model: %s", name)
	}
	return fn(params)
}

func (r *Registry) Aeration(name string, setpoint float64) (control.Aeration, error) {
	fn, ok := r.aeration[name]
	if !ok {
		return nil, fmt.Errorf("unknown aeration mode: %s", name)
	}
	return fn(setpoint), nil
}

// Build constructs the process unit a node config describes.
func (r *Registry) Build(cfg config.NodeConfig, integ solver.Integrator, substeps int) (process.Node, error) {
	fn, ok := r.nodes[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown node kind: %s", cfg.Kind)
	}
	return fn(cfg, integ, substeps)
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListKinds() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
