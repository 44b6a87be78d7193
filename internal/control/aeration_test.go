package control

import (
	"math"
	"testing"
)

func TestPIDFirstCallIsProportional(t *testing.T) {
	pid := NewPID(10.0, 0.1, 5.0, 2.0)
	u := pid.Compute(1.0, 0.0)
	if u != 10.0 {
		t.Errorf("expected pure proportional response 10, got %f", u)
	}
}

func TestPIDIntegralAccumulates(t *testing.T) {
	pid := NewPID(0.0, 1.0, 0.0, 1.0)
	pid.Compute(0.0, 0.0)
	u1 := pid.Compute(0.0, 1.0)
	u2 := pid.Compute(0.0, 2.0)
	if u2 <= u1 {
		t.Errorf("integral should grow under persistent error, got %f then %f", u1, u2)
	}
}

func TestPIDNonincreasingTimeFallsBack(t *testing.T) {
	pid := NewPID(2.0, 1.0, 1.0, 0.0)
	pid.Compute(1.0, 0.0)
	u := pid.Compute(1.0, 0.0)
	if u != -2.0 {
		t.Errorf("expected proportional fallback -2, got %f", u)
	}
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(1.0, 1.0, 0.0, 1.0)
	pid.Compute(0.0, 0.0)
	pid.Compute(0.0, 1.0)
	pid.Reset()

	u := pid.Compute(0.0, 2.0)
	if u != 1.0 {
		t.Errorf("expected proportional-only response after reset, got %f", u)
	}
}

func TestFixedDOPinsOxygen(t *testing.T) {
	aer := NewFixedDO(2.0)

	if got := aer.OxygenTransfer(0.5); got != 0 {
		t.Errorf("fixed DO should not add transfer terms, got %f", got)
	}
	so, ok := aer.Clamp(0.5)
	if !ok || so != 2.0 {
		t.Errorf("expected clamp to (2, true), got (%f, %v)", so, ok)
	}
}

func TestPIDAerationBoundsCoefficient(t *testing.T) {
	aer := NewPIDAeration(4.0)

	aer.Update(0.0, 0.0)
	if aer.KLa() != KLaMax {
		t.Errorf("large deficit should saturate KLa at %f, got %f", KLaMax, aer.KLa())
	}
	want := KLaMax * (SOSat - 0.5)
	if got := aer.OxygenTransfer(0.5); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected transfer %f, got %f", want, got)
	}

	aer.Reset()
	aer.Update(6.0, 0.0)
	if aer.KLa() != 0 {
		t.Errorf("oxygen above setpoint should shut aeration off, got KLa %f", aer.KLa())
	}
}

func TestPIDAerationDrivesTowardSetpoint(t *testing.T) {
	aer := NewPIDAeration(2.0)

	// Crude oxygen balance with constant respiration, stepped at
	// six-minute intervals over two days.
	so := 0.0
	dt := 0.1 / 24.0
	for i := 0; i < 480; i++ {
		tDay := float64(i) * dt
		aer.Update(so, tDay)
		so += dt * (aer.OxygenTransfer(so) - 80.0)
		if so < 0 {
			so = 0
		}
	}
	if math.Abs(so-2.0) > 0.5 {
		t.Errorf("expected oxygen near setpoint 2.0, got %f", so)
	}

	if _, pinned := aer.Clamp(so); pinned {
		t.Error("PID aeration should not pin the oxygen state")
	}
}
