package model

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/plantsim/plantsim/internal/solver"
)

// ASM1 component indices, in state-vector order.
const (
	SI  = iota // soluble inert organics
	SS         // readily biodegradable substrate
	XI         // particulate inert organics
	XS         // slowly biodegradable substrate
	XBH        // active heterotrophic biomass
	XBA        // active autotrophic biomass
	XP         // inert particulate decay products
	SO         // dissolved oxygen
	SNO        // nitrate and nitrite nitrogen
	SNH        // ammonium nitrogen
	SND        // soluble biodegradable organic nitrogen
	XND        // particulate biodegradable organic nitrogen
	SALK       // alkalinity

	asm1Dim
)

// ASM1Components lists the component ids in state-vector order.
var ASM1Components = []string{
	"si", "ss", "xi", "xs", "xbh", "xba", "xp",
	"so", "sno", "snh", "snd", "xnd", "salk",
}

// ASM1Params are the kinetic and stoichiometric coefficients at 20 C.
// Rates are per day.
type ASM1Params struct {
	MuH  float64 `mapstructure:"mu_h"`  // max heterotrophic growth rate, 1/d
	KS   float64 `mapstructure:"k_s"`   // substrate half-saturation, g/m3
	KOH  float64 `mapstructure:"k_oh"`  // heterotrophic oxygen half-saturation
	KNO  float64 `mapstructure:"k_no"`  // nitrate half-saturation
	BH   float64 `mapstructure:"b_h"`   // heterotrophic decay rate, 1/d
	MuA  float64 `mapstructure:"mu_a"`  // max autotrophic growth rate, 1/d
	KNH  float64 `mapstructure:"k_nh"`  // ammonium half-saturation
	KOA  float64 `mapstructure:"k_oa"`  // autotrophic oxygen half-saturation
	BA   float64 `mapstructure:"b_a"`   // autotrophic decay rate, 1/d
	EtaG float64 `mapstructure:"eta_g"` // anoxic growth correction
	EtaH float64 `mapstructure:"eta_h"` // anoxic hydrolysis correction
	KH   float64 `mapstructure:"k_h"`   // max hydrolysis rate, 1/d
	KX   float64 `mapstructure:"k_x"`   // hydrolysis half-saturation
	KA   float64 `mapstructure:"k_a"`   // ammonification rate, m3/(g d)
	YH   float64 `mapstructure:"y_h"`   // heterotrophic yield
	YA   float64 `mapstructure:"y_a"`   // autotrophic yield
	FP   float64 `mapstructure:"f_p"`   // inert fraction of decayed biomass
	IXB  float64 `mapstructure:"i_xb"`  // N content of biomass, gN/gCOD
	IXP  float64 `mapstructure:"i_xp"`  // N content of inert products
}

// DefaultASM1Params returns the standard coefficient set.
func DefaultASM1Params() ASM1Params {
	return ASM1Params{
		MuH:  6.0,
		KS:   20.0,
		KOH:  0.2,
		KNO:  0.5,
		BH:   0.62,
		MuA:  0.8,
		KNH:  1.0,
		KOA:  0.4,
		BA:   0.2,
		EtaG: 0.8,
		EtaH: 0.4,
		KH:   3.0,
		KX:   0.03,
		KA:   0.08,
		YH:   0.67,
		YA:   0.24,
		FP:   0.08,
		IXB:  0.08,
		IXP:  0.06,
	}
}

// ASM1 is the Activated Sludge Model No. 1: eight processes over thirteen
// components. Derivatives come from folding the process rates through a
// precomputed stoichiometric matrix.
type ASM1 struct {
	p     ASM1Params
	stoic [8][asm1Dim]float64
}

// NewASM1 builds the model with the given coefficients.
func NewASM1(p ASM1Params) *ASM1 {
	m := &ASM1{p: p}
	m.buildStoichiometry()
	return m
}

// ASM1FromParams overlays raw config values on the default coefficients.
func ASM1FromParams(raw map[string]any) (*ASM1, error) {
	p := DefaultASM1Params()
	if err := mapstructure.Decode(raw, &p); err != nil {
		return nil, fmt.Errorf("asm1: failed to decode params: %w", err)
	}
	return NewASM1(p), nil
}

func (m *ASM1) buildStoichiometry() {
	p := m.p
	s := &m.stoic

	// aerobic heterotrophic growth
	s[0][SS] = -1 / p.YH
	s[0][XBH] = 1
	s[0][SO] = -(1 - p.YH) / p.YH
	s[0][SNH] = -p.IXB
	s[0][SALK] = -p.IXB / 14

	// anoxic heterotrophic growth
	s[1][SS] = -1 / p.YH
	s[1][XBH] = 1
	s[1][SNO] = -(1 - p.YH) / (2.86 * p.YH)
	s[1][SNH] = -p.IXB
	s[1][SALK] = (1-p.YH)/(14*2.86*p.YH) - p.IXB/14

	// autotrophic growth
	s[2][XBA] = 1
	s[2][SO] = -(4.57 - p.YA) / p.YA
	s[2][SNO] = 1 / p.YA
	s[2][SNH] = -p.IXB - 1/p.YA
	s[2][SALK] = -p.IXB/14 - 1/(7*p.YA)

	// heterotrophic decay
	s[3][XS] = 1 - p.FP
	s[3][XBH] = -1
	s[3][XP] = p.FP
	s[3][XND] = p.IXB - p.FP*p.IXP

	// autotrophic decay
	s[4][XS] = 1 - p.FP
	s[4][XBA] = -1
	s[4][XP] = p.FP
	s[4][XND] = p.IXB - p.FP*p.IXP

	// ammonification
	s[5][SNH] = 1
	s[5][SND] = -1
	s[5][SALK] = 1.0 / 14

	// hydrolysis of entrapped organics
	s[6][SS] = 1
	s[6][XS] = -1

	// hydrolysis of entrapped organic nitrogen
	s[7][SND] = 1
	s[7][XND] = -1
}

func (m *ASM1) Components() []string { return ASM1Components }

// Params returns the coefficient set in use.
func (m *ASM1) Params() ASM1Params { return m.p }

// Rates evaluates the eight process rates and folds them through the
// stoichiometric matrix. Input and output are in component order; rates in
// g/m3/d.
func (m *ASM1) Rates(x solver.State) solver.State {
	p := m.p
	monod := func(s, k float64) float64 { return s / (k + s) }

	var rho [8]float64
	rho[0] = p.MuH * monod(x[SS], p.KS) * monod(x[SO], p.KOH) * x[XBH]
	rho[1] = p.MuH * monod(x[SS], p.KS) * (p.KOH / (p.KOH + x[SO])) *
		monod(x[SNO], p.KNO) * p.EtaG * x[XBH]
	rho[2] = p.MuA * monod(x[SNH], p.KNH) * monod(x[SO], p.KOA) * x[XBA]
	rho[3] = p.BH * x[XBH]
	rho[4] = p.BA * x[XBA]
	rho[5] = p.KA * x[SND] * x[XBH]

	ratio := x[XS] / (x[XBH] + 1e-10)
	rho[6] = p.KH * (ratio / (p.KX + ratio)) *
		(monod(x[SO], p.KOH) + p.EtaH*(p.KOH/(p.KOH+x[SO]))*monod(x[SNO], p.KNO)) *
		x[XBH]
	rho[7] = rho[6] * x[XND] / (x[XS] + 1e-10)

	out := make(solver.State, asm1Dim)
	for j := range rho {
		for i := 0; i < asm1Dim; i++ {
			out[i] += m.stoic[j][i] * rho[j]
		}
	}
	return out
}

// Initial returns a typical mixed-liquor startup state.
func (m *ASM1) Initial() solver.State {
	x := make(solver.State, asm1Dim)
	x[SI] = 30
	x[SS] = 5
	x[XI] = 25
	x[XS] = 100
	x[XBH] = 2500
	x[XBA] = 150
	x[XP] = 450
	x[SO] = 2
	x[SNO] = 5
	x[SNH] = 2
	x[SND] = 1
	x[XND] = 5
	x[SALK] = 7
	return x
}
