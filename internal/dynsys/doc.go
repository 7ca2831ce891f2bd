// Package dynsys provides core primitives for simulating dynamical
// systems, including descriptor (differential-algebraic) systems.
//
// The package defines the fundamental types shared by the rest of the
// module:
//
//   - [State]: vector representing system state
//   - [System]: interface for dynamical units advanced one step at a time
//   - [Inputs]: an upstream solution fed to a downstream system's forcing
//   - capability markers [Discrete], [Algebraic], [Equilibrater]
//
// Concrete system kinds live in their own packages: descriptor holds
// linear and nonlinear DAE formulations, discrete holds map systems,
// delay holds delay-differential systems. Composition into signal-flow
// paths is in flow, and time marching in stepper.
//
// # Example
//
//	sys := descriptor.NewScalar(1, 0.04, func(t, _ float64) float64 { return 0.01 }, 0.5)
//	st := stepper.New(pathOf(sys), stepper.DefaultConfig())
//	result, _ := st.Run(ctx, []dynsys.State{{0}})
//
// # Thread Safety
//
// Systems carry no trajectory state, but implicit systems memoize their
// step-size factorization, so a system must not be shared between
// concurrently running steppers. Stepper instances are NOT thread-safe.
package dynsys
