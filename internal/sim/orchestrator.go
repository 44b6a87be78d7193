package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/plantsim/plantsim/internal/bus"
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/graph"
	"github.com/plantsim/plantsim/internal/metrics"
	"github.com/plantsim/plantsim/internal/process"
)

// Config sets the simulated window. All values are hours; the window
// must be a whole multiple of dt.
type Config struct {
	Start float64
	End   float64
	Dt    float64
}

// Steps returns the number of timesteps in the window.
func (c Config) Steps() (int, error) {
	if c.Dt <= 0 {
		return 0, fmt.Errorf("sim: dt must be positive, got %f", c.Dt)
	}
	span := c.End - c.Start
	if span <= 0 {
		return 0, fmt.Errorf("sim: end %.4f must exceed start %.4f", c.End, c.Start)
	}
	n := math.Round(span / c.Dt)
	if math.Abs(n*c.Dt-span) > 1e-9 {
		return 0, fmt.Errorf("sim: window %.6f h is not a whole multiple of dt %.6f h", span, c.Dt)
	}
	return int(n), nil
}

// Network is a runnable plant: the validated graph, one process node
// per declared id, the influent source, and the seed state recycle
// reads return before any upstream output exists.
type Network struct {
	Graph    *graph.Graph
	Nodes    map[string]process.Node
	Influent InfluentFunc
	Seed     flow.State
}

// StepError marks where a run aborted. The history up to the failing
// step survives in the result returned alongside it.
type StepError struct {
	Step int
	Time float64
	Node string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sim: aborted at step %d (t=%.4f h) in node %s: %v", e.Step, e.Time, e.Node, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Result is a completed or aborted run.
type Result struct {
	History *History
	KPIs    map[string]float64
	Steps   int // steps completed
}

// Orchestrator runs one network. It is single-use: nodes are
// initialized when the first stepper is built and cannot be reset.
type Orchestrator struct {
	net  Network
	kpis []metrics.KPI
	log  *slog.Logger
}

// New wires an orchestrator over a network. kpis may be empty; a nil
// logger falls back to slog.Default().
func New(net Network, kpis []metrics.KPI, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{net: net, kpis: kpis, log: logger}
}

// Run drives the network across the whole window. Cancellation is
// honored at step boundaries only; the first node error aborts the
// run. Either way the partial history is preserved in the result.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*Result, error) {
	st, err := o.Stepper(cfg)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			o.log.Info("run cancelled", "step", st.step, "steps", st.steps)
			return st.Result(), ctx.Err()
		default:
		}
		more, err := st.Step()
		if err != nil {
			o.log.Error("run aborted", "error", err)
			return st.Result(), err
		}
		if !more {
			break
		}
	}
	if err := st.Finalize(); err != nil {
		return st.Result(), err
	}
	o.log.Info("run complete", "steps", st.steps, "records", st.hist.Len())
	return st.Result(), nil
}

// Stepper prepares a run and returns a driver that advances it one
// timestep per call, for callers that interleave stepping with
// rendering. Building the stepper initializes every node.
func (o *Orchestrator) Stepper(cfg Config) (*Stepper, error) {
	steps, err := cfg.Steps()
	if err != nil {
		return nil, err
	}
	order := o.net.Graph.Order()
	for _, id := range order[1:] {
		node, ok := o.net.Nodes[id]
		if !ok {
			return nil, fmt.Errorf("sim: no process node for graph id %s", id)
		}
		if err := node.Init(); err != nil {
			return nil, fmt.Errorf("sim: init %s: %w", id, err)
		}
	}
	for _, k := range o.kpis {
		k.Reset()
	}
	o.log.Info("run starting", "nodes", len(order)-1, "steps", steps, "dt_hours", cfg.Dt)
	return &Stepper{
		o:     o,
		cfg:   cfg,
		bus:   bus.New(o.net.Graph, o.net.Seed),
		hist:  &History{},
		order: order,
		steps: steps,
	}, nil
}

// Stepper advances a prepared run one timestep at a time.
type Stepper struct {
	o     *Orchestrator
	cfg   Config
	bus   *bus.Bus
	hist  *History
	order []string
	steps int
	step  int
}

// Time returns the time of the next step boundary in hours.
func (s *Stepper) Time() float64 { return s.cfg.Start + float64(s.step)*s.cfg.Dt }

// StepsDone returns how many steps have completed.
func (s *Stepper) StepsDone() int { return s.step }

// StepsTotal returns the window length in steps.
func (s *Stepper) StepsTotal() int { return s.steps }

// History returns the live run history.
func (s *Stepper) History() *History { return s.hist }

// Step advances the network one timestep: the influent publishes
// first, then every node steps in execution order. It returns false
// once the window is exhausted.
func (s *Stepper) Step() (bool, error) {
	if s.step >= s.steps {
		return false, nil
	}
	t := s.Time()

	raw := s.o.net.Influent(t)
	if err := s.bus.Publish(graph.Influent, bus.Emission{Main: raw}); err != nil {
		return false, &StepError{Step: s.step, Time: t, Node: graph.Influent, Err: err}
	}

	for _, id := range s.order[1:] {
		node := s.o.net.Nodes[id]
		in, degenerate, err := s.bus.ReadInbound(id)
		if err != nil {
			return false, &StepError{Step: s.step, Time: t, Node: id, Err: err}
		}
		em, diag, err := node.Step(in, degenerate, t, s.cfg.Dt)
		if err != nil {
			return false, &StepError{Step: s.step, Time: t, Node: id, Err: err}
		}
		if err := s.bus.Publish(id, em); err != nil {
			return false, &StepError{Step: s.step, Time: t, Node: id, Err: err}
		}

		s.hist.Append(Record{
			Step:     s.step,
			Time:     t,
			Node:     id,
			Flow:     em.Main.Clone(),
			Snapshot: node.Snapshot(),
			Diag:     diag,
		})
		s.observe(id, node, t, raw, in, em.Main)
	}

	s.bus.Advance()
	s.step++
	s.logProgress()
	return s.step < s.steps, nil
}

// Finalize ends every node's lifecycle. Run calls it after the last
// step; interactive drivers call it when they stop.
func (s *Stepper) Finalize() error {
	var first error
	for _, id := range s.order[1:] {
		if err := s.o.net.Nodes[id].Finalize(); err != nil && first == nil {
			first = fmt.Errorf("sim: finalize %s: %w", id, err)
		}
	}
	return first
}

// Result harvests the history and indicator values accumulated so far.
func (s *Stepper) Result() *Result {
	kpis := make(map[string]float64, len(s.o.kpis))
	for _, k := range s.o.kpis {
		kpis[k.Name()] = k.Value()
	}
	return &Result{History: s.hist, KPIs: kpis, Steps: s.step}
}

func (s *Stepper) observe(id string, node process.Node, t float64, raw, in, out flow.State) {
	if len(s.o.kpis) == 0 {
		return
	}
	sample := metrics.Sample{
		Node:     id,
		Time:     t,
		Dt:       s.cfg.Dt,
		Influent: raw,
		Inbound:  in,
		Outbound: out,
	}
	if v, ok := node.(interface{ Volume() float64 }); ok {
		sample.Volume = v.Volume()
	}
	if w, ok := node.(interface{ WasteRatio() float64 }); ok {
		sample.WasteRatio = w.WasteRatio()
	}
	for _, k := range s.o.kpis {
		k.Observe(sample)
	}
}

func (s *Stepper) logProgress() {
	tenth := s.steps / 10
	if tenth == 0 {
		tenth = 1
	}
	if s.step%tenth != 0 {
		return
	}
	s.o.log.Info("run progress", "step", s.step, "steps", s.steps, "percent", 100*s.step/s.steps)
}
