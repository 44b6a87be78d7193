package metrics

// Plausible hydraulic retention bounds for a municipal plant, hours.
const (
	hrtMin = 2.0
	hrtMax = 48.0
)

// HRT reports the mean hydraulic retention time of a node, hours.
type HRT struct {
	name    string
	node    string
	sum     float64
	samples int
}

func NewHRT(node string) *HRT {
	return &HRT{name: "hrt_hours", node: node}
}

func (h *HRT) Name() string { return h.name }

func (h *HRT) Observe(s Sample) {
	if s.Node != h.node || s.Volume <= 0 || s.Inbound.Flowrate <= 0 {
		return
	}
	h.sum += clip(s.Volume/s.Inbound.Flowrate, hrtMin, hrtMax)
	h.samples++
}

func (h *HRT) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return h.sum / float64(h.samples)
}

func (h *HRT) Reset() {
	h.sum = 0
	h.samples = 0
}
