// Package nbody provides the body state and the mass-focus integrator that
// drives the orrery.
//
// The package is built around a few small pieces:
//
//   - [Bodies]: parallel position, velocity, mass and radius slices
//   - [Initializer]: seeds a [Bodies] value ([SolarSystem], [RandomCluster])
//   - [Integrator]: advances every body by one timestep
//   - [MassFocus], [CircularVelocity]: the shared force helpers
//
// # Mass focus
//
// Instead of summing pairwise gravity, each body is pulled toward the
// mass-weighted centroid of every other body, treated as a single point mass.
// This is O(N) per body and produces plausible looking orbits; it is not a
// physically accurate solver.
//
// # Example
//
//	rng := rand.New(rand.NewSource(42))
//	b, _ := nbody.DefaultSolarSystem().Init(rng)
//	integ := nbody.Integrator{G: nbody.G}
//	_ = integ.Step(b, 3600)
//
// # Thread Safety
//
// [Bodies] has no internal locking. It is meant to be owned by a single
// goroutine that steps it and reads frames from it in turn.
package nbody
