// Package fraction converts raw wastewater characterisation
// measurements (COD, TSS, TKN, nutrients) into ASM1 state variables
// using standard municipal influent fractions.
package fraction

// COD and nitrogen fractions for typical municipal wastewater.
const (
	FSi      = 0.05 // soluble inert fraction of total COD
	FXi      = 0.10 // particulate inert fraction of total COD
	FBiomass = 0.08 // active biomass fraction of total COD
	FCv      = 1.48 // gCOD/gTSS conversion for particulate matter
	FSnh     = 0.70 // ammonia fraction of TKN when NH4 is not measured
	FSnd     = 0.05 // soluble organic N fraction of TKN

	heterotrophShare = 0.9 // remainder is autotrophs

	defaultAlkalinity = 5.0 // mol/m3 when nothing is measured
)

// Raw holds influent characterisation measurements in g/m3.
// CODSoluble below zero means unmeasured; the soluble split is then
// derived from TSS. Alkalinity at or below zero is likewise derived.
type Raw struct {
	COD        float64
	CODSoluble float64
	TSS        float64
	TKN        float64
	NH4        float64
	NO3        float64
	Alkalinity float64
}

// rawKeys are the composition keys the converter consumes.
var rawKeys = []string{"cod", "cod_soluble", "tss", "tkn", "nh4", "no3", "alkalinity"}

// FromComposition extracts raw measurements from a composition map.
// The second return is false when the map carries no usable raw
// signal (no positive COD, TSS or TKN).
func FromComposition(comp map[string]float64) (Raw, bool) {
	r := Raw{CODSoluble: -1}
	if v, ok := comp["cod"]; ok {
		r.COD = v
	}
	if v, ok := comp["cod_soluble"]; ok {
		r.CODSoluble = v
	}
	if v, ok := comp["tss"]; ok {
		r.TSS = v
	}
	if v, ok := comp["tkn"]; ok {
		r.TKN = v
	}
	if v, ok := comp["nh4"]; ok {
		r.NH4 = v
	}
	if v, ok := comp["no3"]; ok {
		r.NO3 = v
	}
	if v, ok := comp["alkalinity"]; ok {
		r.Alkalinity = v
	}
	return r, r.COD > 0 || r.TSS > 0 || r.TKN > 0
}

// ConsumedKeys reports which keys of comp the converter would consume.
func ConsumedKeys(comp map[string]float64) []string {
	var used []string
	for _, k := range rawKeys {
		if _, ok := comp[k]; ok {
			used = append(used, k)
		}
	}
	return used
}

// ASM1 fractionates raw measurements into the thirteen ASM1 state
// variables. COD mass is conserved: the returned COD fractions sum to
// the measured total whenever the inert and biomass assignments fit
// inside the particulate pool.
func ASM1(r Raw) map[string]float64 {
	cod := max(r.COD, 0)
	tss := max(r.TSS, 0)

	var soluble float64
	if r.CODSoluble >= 0 {
		soluble = min(max(r.CODSoluble, 0), cod)
	} else {
		soluble = cod - min(cod, FCv*tss)
	}
	particulate := cod - soluble

	si := FSi * cod
	ss := max(0, soluble-si)
	xi := FXi * cod
	biomass := FBiomass * cod
	xs := max(0, particulate-xi-biomass)

	tkn := max(r.TKN, 0)
	snh := r.NH4
	if snh <= 0 {
		snh = FSnh * tkn
	}
	snd := FSnd * tkn
	xnd := max(0, tkn-snh-snd)

	sno := max(r.NO3, 0)

	salk := r.Alkalinity
	if salk <= 0 {
		if tkn > 0 {
			salk = max(0, (tkn-sno)/14.0)
		} else {
			salk = defaultAlkalinity
		}
	}

	return map[string]float64{
		"si":   si,
		"ss":   ss,
		"xi":   xi,
		"xs":   xs,
		"xbh":  heterotrophShare * biomass,
		"xba":  (1 - heterotrophShare) * biomass,
		"xp":   0,
		"so":   0,
		"sno":  sno,
		"snh":  snh,
		"snd":  snd,
		"xnd":  xnd,
		"salk": salk,
	}
}
