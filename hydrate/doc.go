// Package hydrate synthesizes fully populated values of arbitrary Go types
// for use as test fixtures.
//
// Given a type, hydrate recursively resolves every constructor parameter and
// every exported struct field to a concrete value, using built-in defaults,
// registered factories, or a randomly chosen concrete type for interfaces.
//
// Resolution rules, in priority order (the first match wins):
//
//   - an exact-type factory registered for the type (used verbatim, even nil)
//   - an enumeration: uniform choice among its members
//   - a slice (one resolved element) or an array (every element resolved)
//   - a map: an empty, non-nil map
//   - a pointer: the element is resolved and its address returned
//   - an interface: one registered candidate picked uniformly and constructed
//   - anything else: the registered constructor with the fewest parameters
//     (or the zero value), then every settable field
//
// Self-referential graphs terminate through the recursion limit: a field is
// resolved only while at most RecursionLimit frames of its type (pointers
// stripped) are active. With limit n a self-referential chain holds exactly
// n links.
//
// Go has no constructors or enums that reflection can discover, so both are
// explicit capabilities on the Registry (RegisterConstructor, RegisterEnum or
// the Enum interface). cmd/hydrategen generates these registrations from a
// JSON spec.
//
// Errors
//
// Registry mutators validate their input before touching any state and
// return a *ConfigError matching ErrInvalidConfig. A failure while resolving
// a frame is offered to the per-type error handler, else the global one.
// A handler returning true turns that branch into its zero value; otherwise
// the run fails with a *ResolutionError naming the phase and type, whose
// cause chain keeps the original error. With no handler nothing is swallowed.
//
// Quick start
//
//	reg, err := hydrate.Configure(
//		hydrate.WithRecursionLimit(1),
//		hydrate.WithFactory(func() (int, error) { return 999, nil }),
//		hydrate.WithAbstract[Shape](reflect.TypeFor[*Circle]()),
//	)
//	if err != nil {
//		return err
//	}
//	order, err := hydrate.Hydrate[Order](ctx, reg)
//
// A Registry is safe for concurrent use; each Hydrate call keeps its own
// stack, so many runs may share one registry.
//
// Import
//
//	"github.com/sghaida/fixtures/hydrate"
package hydrate
