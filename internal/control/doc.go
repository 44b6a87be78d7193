// Package control provides aeration strategies for activated sludge
// reactors.
//
// Strategies implement the [Aeration] interface consumed by reactor
// nodes:
//
//   - [FixedDO]: pins dissolved oxygen to a setpoint each step
//   - [PIDAeration]: modulates the oxygen transfer coefficient with a
//     PID loop on the dissolved oxygen error
//
// # Usage
//
//	aer := control.NewPIDAeration(2.0) // DO setpoint in g/m3
//	// Aeration.OxygenTransfer is called from the reactor derivative
package control
