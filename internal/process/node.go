// Package process implements the unit processes wired into a plant
// network: kinetic reactors, layered clarifiers and data-driven
// surrogates. Every node follows the same step sequence: convert the
// inbound composition to its working basis, update hydraulics, advance
// internal state, emit outbound flows and report diagnostics.
package process

import (
	"errors"

	"github.com/plantsim/plantsim/internal/bus"
	"github.com/plantsim/plantsim/internal/flow"
	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/solver"
)

// Lifecycle errors returned by nodes.
var (
	ErrAlreadyInitialized = errors.New("process: node already initialized")
	ErrNotReady           = errors.New("process: node not ready")
	ErrFinalized          = errors.New("process: node finalized")
)

// Status tracks a node through its lifecycle.
type Status int

const (
	StatusUninitialized Status = iota
	StatusReady
	StatusStepping
	StatusFinalized
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusReady:
		return "ready"
	case StatusStepping:
		return "stepping"
	case StatusFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Diagnostics carries per-step side information alongside a node's
// outbound emission.
type Diagnostics struct {
	DetentionTime float64 // hydraulic detention, h
	Clamps        []solver.Clamp
	Degenerate    bool
	DroppedKeys   []string
	Extra         map[string]float64
}

// Node is a unit process. Init must be called exactly once before the
// first Step; Finalize ends the lifecycle. Step receives the mixed
// inbound flow, a flag marking zero-inflow conditions, the absolute
// time t and the step width dt, both in hours.
type Node interface {
	ID() string
	Init() error
	Step(in flow.State, degenerate bool, t, dt float64) (bus.Emission, Diagnostics, error)
	Snapshot() model.Snapshot
	Status() Status
	Finalize() error
}

// lifecycle enforces Uninitialized -> Ready -> Stepping -> Ready ->
// Finalized. A failed step leaves the node in Stepping so an aborted
// run cannot silently resume.
type lifecycle struct {
	status Status
}

func (l *lifecycle) Status() Status { return l.status }

func (l *lifecycle) init() error {
	switch l.status {
	case StatusUninitialized:
		l.status = StatusReady
		return nil
	case StatusFinalized:
		return ErrFinalized
	default:
		return ErrAlreadyInitialized
	}
}

func (l *lifecycle) begin() error {
	switch l.status {
	case StatusReady:
		l.status = StatusStepping
		return nil
	case StatusFinalized:
		return ErrFinalized
	default:
		return ErrNotReady
	}
}

func (l *lifecycle) end() { l.status = StatusReady }

func (l *lifecycle) finalize() error {
	switch l.status {
	case StatusReady:
		l.status = StatusFinalized
		return nil
	case StatusFinalized:
		return ErrFinalized
	default:
		return ErrNotReady
	}
}
