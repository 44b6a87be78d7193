package process

import (
	"fmt"

	"github.com/plantsim/plantsim/internal/bus"
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/solver"
)

// Fixed split of soluble components between overflow and underflow.
const (
	solubleToOverflow  = 0.95
	solubleToUnderflow = 0.05

	// Fallback concentration ratios when the feed carries no solids.
	fallbackOverflowRatio  = 0.1
	fallbackUnderflowRatio = 2.0

	defaultFeedSolids = 2000.0 // g/m3
)

// ClarifierSpec holds the settler geometry and hydraulic split.
type ClarifierSpec struct {
	Area           float64 // m2
	Depth          float64 // m
	Layers         int
	UnderflowRatio float64 // Q_under / Q_in
	FeedRatio      float64 // feed inlet height as a depth fraction from the bottom
}

// DefaultClarifierSpec returns a municipal-scale secondary settler.
func DefaultClarifierSpec() ClarifierSpec {
	return ClarifierSpec{Area: 1000, Depth: 4, Layers: 10, UnderflowRatio: 0.5, FeedRatio: 0.5}
}

// Clarifier is a secondary settler discretized into horizontal layers
// with a one-dimensional solids flux balance. The overflow leaves as
// the main emission, the thickened underflow as the recycle stream.
type Clarifier struct {
	lifecycle

	id       string
	spec     ClarifierSpec
	layerH   float64
	col      *model.Column
	integ    solver.Integrator
	substeps int

	profile solver.State
	labels  []string
	blanket model.Blanket
}

func NewClarifier(id string, spec ClarifierSpec, settling *model.Takacs,
	integ solver.Integrator, substeps int) *Clarifier {

	if spec.Layers < 2 {
		spec.Layers = 2
	}
	layerH := spec.Depth / float64(spec.Layers)
	feedLayer := int(float64(spec.Layers) * (1 - spec.FeedRatio))
	if feedLayer < 0 {
		feedLayer = 0
	}
	if feedLayer > spec.Layers-1 {
		feedLayer = spec.Layers - 1
	}
	if substeps < 1 {
		substeps = 1
	}

	labels := make([]string, spec.Layers)
	for i := range labels {
		labels[i] = fmt.Sprintf("layer_%d", i)
	}

	return &Clarifier{
		id:     id,
		spec:   spec,
		layerH: layerH,
		col: &model.Column{
			Settling:  settling,
			Area:      spec.Area,
			LayerH:    layerH,
			FeedLayer: feedLayer,
		},
		integ:    integ,
		substeps: substeps,
		labels:   labels,
	}
}

func (c *Clarifier) ID() string { return c.id }

// Volume returns the settler liquid volume in m3.
func (c *Clarifier) Volume() float64 { return c.spec.Area * c.spec.Depth }

func (c *Clarifier) Init() error {
	if err := c.lifecycle.init(); err != nil {
		return fmt.Errorf("clarifier %s: %w", c.id, err)
	}
	// Startup profile thickens toward the bottom.
	c.profile = make(solver.State, c.spec.Layers)
	for i := range c.profile {
		c.profile[i] = 500 * (1 + 2*float64(i)/float64(c.spec.Layers))
	}
	return nil
}

// columnSystem binds a column to one step's hydraulic condition. Layer
// concentrations are clipped to the physical range before every
// derivative evaluation.
type columnSystem struct {
	col  *model.Column
	feed model.Feed
	n    int
}

func (s columnSystem) Dim() int { return s.n }

func (s columnSystem) Derive(x solver.State, t float64) solver.State {
	clipped := x.Clone()
	model.ClipProfile(clipped)
	return s.col.Derive(clipped, s.feed)
}

func (c *Clarifier) Step(in flow.State, degenerate bool, t, dt float64) (bus.Emission, Diagnostics, error) {
	if err := c.begin(); err != nil {
		return bus.Emission{}, Diagnostics{}, fmt.Errorf("clarifier %s: %w", c.id, err)
	}

	xin := feedSolids(in.Composition)
	qIn := in.Flowrate
	qUnder := c.spec.UnderflowRatio * qIn
	qOver := qIn - qUnder

	diag := Diagnostics{Degenerate: degenerate}
	if qIn > 0 {
		diag.DetentionTime = c.Volume() / qIn
	}

	sys := columnSystem{
		col:  c.col,
		feed: model.Feed{QIn: qIn, QOver: qOver, QUnder: qUnder, XIn: xin},
		n:    c.spec.Layers,
	}

	next, clamps, err := solver.Advance(c.integ, sys, c.profile, t, dt, c.substeps)
	if err != nil {
		return bus.Emission{}, diag, fmt.Errorf("clarifier %s: %w", c.id, err)
	}
	model.ClipProfile(next)
	c.profile = next
	diag.Clamps = clamps

	xOver := c.profile[0]
	xUnder := c.profile[len(c.profile)-1]
	over, under := splitComposition(in.Composition, xin, xOver, xUnder)

	c.blanket = model.DetectBlanket(c.profile, c.layerH)

	diag.Extra = map[string]float64{
		"x_overflow":      xOver,
		"x_underflow":     xUnder,
		"overflow_rate":   safeDiv(qOver, c.spec.Area),
		"underflow_rate":  safeDiv(qUnder, c.spec.Area),
		"surface_loading": safeDiv(qIn, c.spec.Area),
		"solids_loading":  safeDiv(qIn*xin/1000, c.spec.Area),
		"mass_overflow":   qOver * xOver / 1000,
		"mass_underflow":  qUnder * xUnder / 1000,
	}
	if xin > 0 {
		diag.Extra["removal_efficiency"] = (1 - xOver/xin) * 100
	}
	if c.blanket.Present {
		diag.Extra["blanket_top"] = float64(c.blanket.Top)
		diag.Extra["blanket_thickness"] = c.blanket.Thickness
	}

	overflow := flow.State{Flowrate: qOver, Temperature: in.Temperature, Composition: over}
	underflow := flow.State{Flowrate: qUnder, Temperature: in.Temperature, Composition: under}

	c.end()
	return bus.Emission{Main: overflow, Recycle: &underflow}, diag, nil
}

// feedSolids estimates the feed solids concentration: particulate
// components when present, then a measured TSS, then a typical
// mixed-liquor value.
func feedSolids(comp map[string]float64) float64 {
	if x := model.TSS(comp); x > 0 {
		return x
	}
	if v, ok := comp["mlss"]; ok && v > 0 {
		return v
	}
	return defaultFeedSolids
}

// splitComposition routes every inbound component to both outlets.
// Soluble components ('s' prefix) split by fixed efficiency,
// particulate components ('x' prefix) scale with the settled profile,
// anything else passes through unchanged.
func splitComposition(comp map[string]float64, xin, xOver, xUnder float64) (map[string]float64, map[string]float64) {
	overRatio := fallbackOverflowRatio
	underRatio := fallbackUnderflowRatio
	if xin > 0 {
		overRatio = xOver / xin
		underRatio = xUnder / xin
	}

	over := make(map[string]float64, len(comp))
	under := make(map[string]float64, len(comp))
	for k, v := range comp {
		switch {
		case len(k) > 0 && k[0] == 's':
			over[k] = v * solubleToOverflow
			under[k] = v * solubleToUnderflow
		case len(k) > 0 && k[0] == 'x':
			over[k] = v * overRatio
			under[k] = v * underRatio
		default:
			over[k] = v
			under[k] = v
		}
	}
	return over, under
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func (c *Clarifier) Snapshot() model.Snapshot {
	return model.Snapshot{
		Kind:   model.KindLayered,
		Labels: c.labels,
		Values: c.profile.Clone(),
	}
}

// Blanket reports the sludge blanket detected after the last step.
func (c *Clarifier) Blanket() model.Blanket { return c.blanket }

func (c *Clarifier) Finalize() error {
	if err := c.lifecycle.finalize(); err != nil {
		return fmt.Errorf("clarifier %s: %w", c.id, err)
	}
	return nil
}
