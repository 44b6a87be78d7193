package sim_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/registry"
	"github.com/plantsim/plantsim/internal/sim"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func runPlant(cfg *config.Config) (*sim.Result, error) {
	net, err := sim.BuildNetwork(cfg, registry.NewRegistry())
	Expect(err).NotTo(HaveOccurred())
	orch := sim.New(net, sim.DefaultKPIs(net), discard)
	return orch.Run(context.Background(), sim.Window(cfg))
}

var _ = Describe("plant simulation", func() {
	It("carries a day of constant urban load through one reactor", func() {
		cfg := config.GetPreset("default")

		res, err := runPlant(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(240))

		recs := res.History.Select("as1", 0, 24)
		Expect(recs).To(HaveLen(240))
		for _, r := range recs {
			Expect(r.Flow.Flowrate).To(BeNumerically(">", 0))
			Expect(r.Flow.IsValid()).To(BeTrue())
		}

		last := recs[len(recs)-1]
		Expect(last.Snapshot.Kind).To(Equal(model.KindKinetic))
		Expect(last.Snapshot.Labels).To(HaveLen(13))

		// 5000 m3 tank at 1000 m3/h.
		Expect(res.KPIs["hrt_hours"]).To(BeNumerically("~", 5.0, 1e-9))
	})

	It("lags the return stream by one timestep", func() {
		cfg := config.GetPreset("plant")
		cfg.Time.End = 1
		cfg.Edges[2].Fraction = 0.6 // settler underflow back to the reactor

		res, err := runPlant(cfg)
		Expect(err).NotTo(HaveOccurred())

		// Underflow is half the settler feed, so the reactor inflow
		// follows q(k) = 1000 + 0.6*0.5*q(k-1), from the zero seed.
		_, q := res.History.Series("as1", "flowrate")
		Expect(q).To(HaveLen(10))
		Expect(q[0]).To(BeNumerically("~", 1000, 1e-6))
		Expect(q[1]).To(BeNumerically("~", 1300, 1e-6))
		Expect(q[2]).To(BeNumerically("~", 1390, 1e-6))
	})

	It("clears solids through the settling loop", func() {
		cfg := config.GetPreset("plant")

		res, err := runPlant(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(480))

		last, ok := res.History.Last("settler1")
		Expect(ok).To(BeTrue())
		Expect(model.COD(last.Flow.Composition)).To(BeNumerically("<", 200))
		Expect(last.Diag.Extra["x_underflow"]).To(BeNumerically(">", last.Diag.Extra["x_overflow"]))

		Expect(res.KPIs["cod_removal"]).To(BeNumerically(">", 70))
		Expect(res.KPIs["svi"]).To(BeNumerically(">=", 50))
		Expect(res.KPIs["svi"]).To(BeNumerically("<=", 300))
		Expect(res.KPIs["srt_days"]).To(BeNumerically(">=", 3))
		Expect(res.KPIs["srt_days"]).To(BeNumerically("<=", 50))
		Expect(res.KPIs["energy_kwh_m3"]).To(BeNumerically(">=", 0))
		Expect(res.KPIs["hrt_hours"]).To(BeNumerically(">=", 2))
		Expect(res.KPIs["hrt_hours"]).To(BeNumerically("<=", 5))
	})
})
