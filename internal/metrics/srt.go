package metrics

import "github.com/plantsim/plantsim/internal/model"

// Typical sludge age bounds, days. Outside them the wastage numbers
// are not trustworthy and a design value is reported instead.
const (
	srtMin     = 3.0
	srtMax     = 50.0
	srtDefault = 20.0

	// Below this mixed liquor concentration the tank is effectively
	// washed out.
	mlssFloor = 100.0
)

// SRT reports the mean solids retention time of a reactor, days,
// derived from the solids inventory and the wastage rate.
type SRT struct {
	name    string
	node    string
	sum     float64
	samples int
}

func NewSRT(node string) *SRT {
	return &SRT{name: "srt_days", node: node}
}

func (s *SRT) Name() string { return s.name }

func (s *SRT) Observe(smp Sample) {
	if smp.Node != s.node {
		return
	}
	mlss := model.TSS(smp.Outbound.Composition)
	q := smp.Inbound.Flowrate

	srt := srtDefault
	if q > 0 && mlss > mlssFloor && smp.WasteRatio > 0 {
		totalKg := mlss * smp.Volume / 1000
		wastedKgPerDay := q * smp.WasteRatio * mlss * 24 / 1000
		srt = clip(totalKg/wastedKgPerDay, srtMin, srtMax)
	}
	s.sum += srt
	s.samples++
}

func (s *SRT) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *SRT) Reset() {
	s.sum = 0
	s.samples = 0
}
