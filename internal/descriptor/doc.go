// Package descriptor implements linear and nonlinear descriptor
// (differential-algebraic) systems of the form M x' + D x = f(t) or
// F(t, x, x') = 0, where the mass operator M may be singular so that
// some rows encode algebraic constraints.
//
// Implicit steps are theta-method solves against the iteration matrix
// M/h + theta*D; [Linear.IsIndexOne] reports whether the direct solve
// is well-posed without constraint stabilization. A singular iteration
// matrix always surfaces as an error, never as a degenerate solution.
package descriptor
