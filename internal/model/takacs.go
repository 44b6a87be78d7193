package model

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"

	"github.com/plantsim/plantsim/internal/solver"
)

// MaxSolids bounds settler layer concentrations, g/m3.
const MaxSolids = 15000

// BlanketThreshold is the solids concentration above which a layer counts
// as part of the sludge blanket, g/m3.
const BlanketThreshold = 3000

// TakacsParams parameterize the double-exponential settling velocity law.
type TakacsParams struct {
	V0  float64 `mapstructure:"v0"`   // max settling velocity, m/h
	RH  float64 `mapstructure:"r_h"`  // hindered settling parameter, m3/g
	RP  float64 `mapstructure:"r_p"`  // flocculant settling parameter, m3/g
	FNS float64 `mapstructure:"f_ns"` // non-settleable fraction
	XF  float64 `mapstructure:"x_f"`  // reference feed solids, g/m3
}

// DefaultTakacsParams returns the standard clarifier coefficients.
func DefaultTakacsParams() TakacsParams {
	return TakacsParams{V0: 19.75, RH: 5.76e-4, RP: 2.86e-3, FNS: 0.00228, XF: 3000}
}

// Takacs is the layered secondary-settling velocity model.
type Takacs struct {
	p TakacsParams
}

func NewTakacs(p TakacsParams) *Takacs { return &Takacs{p: p} }

// TakacsFromParams overlays raw config values on the defaults.
func TakacsFromParams(raw map[string]any) (*Takacs, error) {
	p := DefaultTakacsParams()
	if err := mapstructure.Decode(raw, &p); err != nil {
		return nil, fmt.Errorf("takacs: failed to decode params: %w", err)
	}
	return NewTakacs(p), nil
}

// Params returns the coefficient set in use.
func (t *Takacs) Params() TakacsParams { return t.p }

// Velocity returns the settling velocity in m/h at a layer concentration,
// capped to [0, v0].
func (t *Takacs) Velocity(x float64) float64 {
	if x <= 0 {
		return t.p.V0
	}
	term := x - t.p.FNS*t.p.XF
	v := t.p.V0 * (math.Exp(-t.p.RH*term) - math.Exp(-t.p.RP*term))
	if v < 0 {
		return 0
	}
	if v > t.p.V0 {
		return t.p.V0
	}
	return v
}

// Column is the discretized clarifier: uniform layers with the surface at
// index 0 and the feed entering one interior layer. Overflow leaves the
// top, underflow the bottom.
type Column struct {
	Settling  *Takacs
	Area      float64 // m2
	LayerH    float64 // m
	FeedLayer int
}

// Feed is the hydraulic condition a column integrates under for one step.
type Feed struct {
	QIn    float64 // m3/h
	QOver  float64
	QUnder float64
	XIn    float64 // feed solids, g/m3
}

// Derive returns dX/dt in g/m3/h for every layer. Each layer passes a
// downward flux of (bulk + settling velocity) times concentration to the
// layer below; the feed layer additionally receives the feed solids.
func (c *Column) Derive(x solver.State, feed Feed) solver.State {
	n := len(x)

	flux := make([]float64, n)
	for i := 0; i < n; i++ {
		var bulk float64
		switch {
		case i < c.FeedLayer:
			bulk = feed.QOver / c.Area
		case i > c.FeedLayer:
			bulk = -feed.QUnder / c.Area
		default:
			bulk = (feed.QOver - feed.QIn) / c.Area
		}
		flux[i] = bulk*x[i] + c.Settling.Velocity(x[i])*x[i]
	}

	out := make(solver.State, n)
	for i := 0; i < n; i++ {
		jIn := 0.0
		if i > 0 {
			jIn = flux[i-1]
		}
		out[i] = (jIn - flux[i]) / c.LayerH
		if i == c.FeedLayer {
			out[i] += (feed.QIn / c.Area) * feed.XIn / c.LayerH
		}
	}
	return out
}

// ClipProfile bounds every layer to [0, MaxSolids] in place.
func ClipProfile(x solver.State) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		} else if v > MaxSolids {
			x[i] = MaxSolids
		}
	}
}

// Blanket describes the sludge blanket detected in a layer profile.
type Blanket struct {
	Present   bool
	Top       int
	Bottom    int
	Thickness float64 // m
	Max       float64 // g/m3
}

// DetectBlanket scans a profile for layers above BlanketThreshold.
func DetectBlanket(profile solver.State, layerH float64) Blanket {
	b := Blanket{Top: -1, Bottom: -1}
	for i, v := range profile {
		if v > b.Max {
			b.Max = v
		}
		if v > BlanketThreshold {
			if !b.Present {
				b.Present = true
				b.Top = i
			}
			b.Bottom = i
		}
	}
	if b.Present {
		b.Thickness = float64(b.Bottom-b.Top+1) * layerH
	}
	return b
}
