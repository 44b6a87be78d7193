package model

// Composite measures over a composition map. Each prefers a raw aggregate
// key ("cod", "tss", "tkn") when present so the same calculators work on
// surrogate effluent and untransformed influent; otherwise it sums the
// ASM1 components.

// COD returns total chemical oxygen demand, g/m3.
func COD(comp map[string]float64) float64 {
	if v, ok := comp["cod"]; ok {
		return v
	}
	return comp["si"] + comp["ss"] + comp["xi"] + comp["xs"] +
		comp["xbh"] + comp["xba"] + comp["xp"]
}

// TSS returns total suspended solids as the particulate component sum, g/m3.
func TSS(comp map[string]float64) float64 {
	if v, ok := comp["tss"]; ok {
		return v
	}
	return comp["xi"] + comp["xs"] + comp["xbh"] + comp["xba"] + comp["xp"]
}

// TKN returns Kjeldahl nitrogen, g/m3.
func TKN(comp map[string]float64) float64 {
	if v, ok := comp["tkn"]; ok {
		return v
	}
	return comp["snh"] + comp["snd"] + comp["xnd"]
}

// Biomass returns active biomass, g/m3.
func Biomass(comp map[string]float64) float64 {
	if v, ok := comp["biomass"]; ok {
		return v
	}
	return comp["xbh"] + comp["xba"]
}

// BOD estimates five-day biochemical oxygen demand from COD.
func BOD(comp map[string]float64) float64 {
	return 0.6 * COD(comp)
}
