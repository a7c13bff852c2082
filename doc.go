// Package fixtures generates populated Go values for tests.
//
// Instead of hand-writing builders for every model, ask for a type and get a
// fully hydrated instance: primitives get fixed sentinels, strings get fresh
// UUIDs, interfaces get a randomly chosen registered implementation, and
// self-referential models stop at a configurable recursion limit.
//
// Package fixtures See subpackages:
//   - hydrate: the registry and the value synthesizer
//   - cmd/hydrategen: generates RegisterHydration for a package from a JSON spec
//   - cmd/hydrate: prints hydrated catalogue models as YAML, JSON or a spew dump
//   - examples/models: a payments catalogue wired through hydrategen
//   - internal/logger: structured logging shared by the above
package fixtures
