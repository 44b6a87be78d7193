package control

// Saturation and actuator limits for fine-bubble aeration.
const (
	SOSat  = 8.0   // g/m3 dissolved oxygen saturation around 20 C
	KLaMax = 360.0 // 1/d ceiling on the oxygen transfer coefficient

	defaultKp = 120.0
	defaultKi = 40.0
)

// Aeration supplies dissolved oxygen to a reactor. Update samples the
// measured oxygen once per step boundary (t in days) and the resulting
// actuation is held for the whole step. OxygenTransfer is evaluated
// inside the kinetic derivative and returns g/(m3*d). Clamp overrides
// the integrated oxygen concentration for strategies that pin it.
type Aeration interface {
	Update(so, t float64)
	OxygenTransfer(so float64) float64
	Clamp(so float64) (float64, bool)
	Setpoint() float64
	Reset()
}

// FixedDO holds dissolved oxygen at a setpoint, standing in for an
// ideally tuned aeration system.
type FixedDO struct {
	DO float64
}

func NewFixedDO(setpoint float64) *FixedDO {
	return &FixedDO{DO: setpoint}
}

func (f *FixedDO) Update(so, t float64) {}

func (f *FixedDO) OxygenTransfer(so float64) float64 { return 0 }

func (f *FixedDO) Clamp(so float64) (float64, bool) { return f.DO, true }

func (f *FixedDO) Setpoint() float64 { return f.DO }

func (f *FixedDO) Reset() {}

// PIDAeration modulates the oxygen transfer coefficient with a PID
// loop on the dissolved oxygen error. The coefficient is recomputed at
// step boundaries and bounded to [0, KLaMax].
type PIDAeration struct {
	pid *PID
	kla float64
}

func NewPIDAeration(setpoint float64) *PIDAeration {
	return &PIDAeration{pid: NewPID(defaultKp, defaultKi, 0, setpoint)}
}

// NewPIDAerationTuned builds an aeration loop with explicit gains.
func NewPIDAerationTuned(kp, ki, kd, setpoint float64) *PIDAeration {
	return &PIDAeration{pid: NewPID(kp, ki, kd, setpoint)}
}

func (a *PIDAeration) Update(so, t float64) {
	u := a.pid.Compute(so, t)
	// keep the integral inside the actuator range so saturation
	// cannot wind it up
	if a.pid.Ki > 0 {
		a.pid.integral = min(max(a.pid.integral, 0), KLaMax/a.pid.Ki)
	}
	a.kla = min(max(u, 0), KLaMax)
}

func (a *PIDAeration) OxygenTransfer(so float64) float64 {
	return a.kla * (SOSat - so)
}

func (a *PIDAeration) Clamp(so float64) (float64, bool) { return so, false }

func (a *PIDAeration) Setpoint() float64 { return a.pid.Target }

// KLa reports the transfer coefficient applied during the last step.
func (a *PIDAeration) KLa() float64 { return a.kla }

func (a *PIDAeration) Reset() {
	a.kla = 0
	a.pid.Reset()
}
