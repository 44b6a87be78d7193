package fraction

import (
	"math"
	"testing"
)

func TestASM1TypicalUrbanInfluent(t *testing.T) {
	comp := ASM1(Raw{
		COD:        500,
		CODSoluble: -1,
		TSS:        250,
		TKN:        40,
		NH4:        28,
		NO3:        0.5,
		Alkalinity: 6,
	})

	want := map[string]float64{
		"si": 25, "ss": 105, "xi": 50, "xs": 280,
		"xbh": 36, "xba": 4, "xp": 0,
		"so": 0, "sno": 0.5, "snh": 28, "snd": 2, "xnd": 10,
		"salk": 6,
	}
	for k, w := range want {
		if math.Abs(comp[k]-w) > 1e-9 {
			t.Errorf("%s = %f, want %f", k, comp[k], w)
		}
	}
}

func TestASM1ConservesCODAndNitrogen(t *testing.T) {
	comp := ASM1(Raw{COD: 500, CODSoluble: -1, TSS: 250, TKN: 40, NH4: 28})

	cod := comp["si"] + comp["ss"] + comp["xi"] + comp["xs"] +
		comp["xbh"] + comp["xba"] + comp["xp"]
	if math.Abs(cod-500) > 1e-9 {
		t.Errorf("COD fractions sum to %f, want 500", cod)
	}

	tkn := comp["snh"] + comp["snd"] + comp["xnd"]
	if math.Abs(tkn-40) > 1e-9 {
		t.Errorf("N fractions sum to %f, want 40", tkn)
	}
}

func TestASM1MeasuredSolubleIsClamped(t *testing.T) {
	comp := ASM1(Raw{COD: 100, CODSoluble: 150})

	if math.Abs(comp["si"]-5) > 1e-9 {
		t.Errorf("si = %f, want 5", comp["si"])
	}
	if math.Abs(comp["ss"]-95) > 1e-9 {
		t.Errorf("ss = %f, want 95 with soluble clamped to total", comp["ss"])
	}
	if comp["xs"] != 0 {
		t.Errorf("xs = %f, want 0 when everything is soluble", comp["xs"])
	}
}

func TestASM1HighTSSLeavesNoReadilyBiodegradable(t *testing.T) {
	comp := ASM1(Raw{COD: 100, CODSoluble: -1, TSS: 200})

	if comp["ss"] != 0 {
		t.Errorf("ss = %f, want 0 when particulate COD dominates", comp["ss"])
	}
	if math.Abs(comp["xs"]-82) > 1e-9 {
		t.Errorf("xs = %f, want 82", comp["xs"])
	}
}

func TestASM1DerivedAlkalinity(t *testing.T) {
	comp := ASM1(Raw{TKN: 40, NO3: 0.5})
	want := (40 - 0.5) / 14.0
	if math.Abs(comp["salk"]-want) > 1e-9 {
		t.Errorf("salk = %f, want %f from TKN", comp["salk"], want)
	}

	comp = ASM1(Raw{COD: 100, CODSoluble: -1})
	if comp["salk"] != defaultAlkalinity {
		t.Errorf("salk = %f, want default %f", comp["salk"], defaultAlkalinity)
	}
}

func TestFromCompositionDetectsRawSignal(t *testing.T) {
	r, ok := FromComposition(map[string]float64{"cod": 500, "tss": 250, "po4": 8})
	if !ok {
		t.Fatal("expected raw signal to be detected")
	}
	if r.COD != 500 || r.TSS != 250 {
		t.Errorf("extracted %+v, want cod=500 tss=250", r)
	}
	if r.CODSoluble >= 0 {
		t.Errorf("cod_soluble = %f, want unmeasured sentinel", r.CODSoluble)
	}

	_, ok = FromComposition(map[string]float64{"ss": 5, "xbh": 2500})
	if ok {
		t.Error("pure state-variable composition should not be treated as raw")
	}
}

func TestConsumedKeysIgnoresUnknown(t *testing.T) {
	used := ConsumedKeys(map[string]float64{"cod": 500, "po4": 8, "tkn": 40})
	if len(used) != 2 {
		t.Fatalf("consumed %v, want exactly cod and tkn", used)
	}
	for _, k := range used {
		if k != "cod" && k != "tkn" {
			t.Errorf("unexpected consumed key %q", k)
		}
	}
}
