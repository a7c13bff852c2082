package hydrate

import (
	"math/rand/v2"
	"reflect"
	"sync"
)

// Factory produces a value for exactly one registered type.
//
// A nil result is used verbatim and yields the absent (zero) value.
type Factory func() (any, error)

// ErrorHandler decides what happens when resolving t fails with err.
// Returning true suppresses the failure and yields the absent value for that
// branch only; returning false propagates it and fails the whole run.
type ErrorHandler func(t reflect.Type, err error) bool

// constructor is a registered Go func that builds a value of a type.
type constructor struct {
	fn       reflect.Value
	params   []reflect.Type
	hasError bool
}

// Registry holds everything a run consults: value factories, abstract
// mappings, constructors, enum members, the recursion limit, error handlers
// and the random source.
//
// It is safe for concurrent use. By convention all mutation happens before
// the registry is handed to Hydrate; later mutation is visible to new frames
// but never corrupts reads.
//
// The zero value is an empty registry: usable, but without the default
// primitive factories that NewRegistry installs.
//
// Expected usage:
//
//	reg, err := hydrate.Configure(
//		hydrate.WithRecursionLimit(1),
//		hydrate.WithAbstract[Shape](reflect.TypeFor[*Circle]()),
//	)
type Registry struct {
	mu sync.RWMutex

	recursionLimit    int
	errorHandler      ErrorHandler
	typeErrorHandlers map[reflect.Type]ErrorHandler
	factories         map[reflect.Type]Factory
	abstracts         map[reflect.Type][]reflect.Type
	constructors      map[reflect.Type][]constructor
	enums             map[reflect.Type][]reflect.Value

	rand *lockedRand
}

// NewRegistry returns a registry seeded with the default primitive factories
// and a randomly seeded random source.
func NewRegistry() *Registry {
	r := newEmptyRegistry(rand.Uint64())
	seedDefaults(r)
	return r
}

func newEmptyRegistry(seed uint64) *Registry {
	return &Registry{
		typeErrorHandlers: map[reflect.Type]ErrorHandler{},
		factories:         map[reflect.Type]Factory{},
		abstracts:         map[reflect.Type][]reflect.Type{},
		constructors:      map[reflect.Type][]constructor{},
		enums:             map[reflect.Type][]reflect.Value{},
		rand:              newLockedRand(seed),
	}
}

// Seed replaces the random source with one seeded deterministically.
func (r *Registry) Seed(seed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = newLockedRand(seed)
}

// SetRecursionLimit sets how many ancestors of an attribute's type may be on
// the stack before the attribute is left unresolved. n must be >= 0.
func (r *Registry) SetRecursionLimit(n int) error {
	if n < 0 {
		return configErr("SetRecursionLimit", nil, "recursion limit must be >= 0")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recursionLimit = n
	return nil
}

// RecursionLimit returns the configured recursion limit.
func (r *Registry) RecursionLimit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recursionLimit
}

// RegisterFactory registers fn as the exact-type factory for t, replacing
// any previous factory for t.
func (r *Registry) RegisterFactory(t reflect.Type, fn Factory) error {
	const op = "RegisterFactory"
	if t == nil {
		return configErr(op, nil, "nil type")
	}
	if fn == nil {
		return configErr(op, t, "nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initMaps()
	r.factories[t] = fn
	return nil
}

// Factory returns the exact-type factory for t.
func (r *Registry) Factory(t reflect.Type) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.factories[t]
	return fn, ok
}

// RegisterAbstract maps the interface type t to concrete candidates, one of
// which is picked uniformly at random whenever t is resolved.
//
// All candidates are validated before the registry is touched, so a failed
// call leaves any previous mapping for t intact. Duplicates collapse, keeping
// the first occurrence.
func (r *Registry) RegisterAbstract(t reflect.Type, candidates ...reflect.Type) error {
	const op = "RegisterAbstract"
	if t == nil {
		return configErr(op, nil, "nil type")
	}
	if t.Kind() != reflect.Interface {
		return configErr(op, t, "type is not an interface")
	}
	if len(candidates) == 0 {
		return configErr(op, t, "no candidate types")
	}

	seen := make(map[reflect.Type]struct{}, len(candidates))
	ordered := make([]reflect.Type, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			return configErr(op, t, "nil candidate type")
		}
		if c.Kind() == reflect.Interface {
			return configErr(op, t, "candidate "+typeName(c)+" is abstract")
		}
		if !c.AssignableTo(t) {
			return configErr(op, t, "candidate "+typeName(c)+" is not assignable")
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		ordered = append(ordered, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.initMaps()
	r.abstracts[t] = ordered
	return nil
}

// Abstract returns the candidates registered for the interface type t.
// The returned slice is a copy.
func (r *Registry) Abstract(t reflect.Type) ([]reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates, ok := r.abstracts[t]
	if !ok {
		return nil, false
	}
	return append([]reflect.Type(nil), candidates...), true
}

// RegisterConstructor registers a Go func as a constructor.
//
// fn must be a non-variadic func returning T or (T, error). It is registered
// for T with pointers stripped, so NewCircle() *Circle constructs Circle.
// Among several constructors for one type the one with the fewest
// parameters wins, ties broken by registration order.
func (r *Registry) RegisterConstructor(fn any) error {
	const op = "RegisterConstructor"
	if fn == nil {
		return configErr(op, nil, "nil constructor")
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return configErr(op, ft, "constructor is not a func")
	}
	if fv.IsNil() {
		return configErr(op, ft, "nil constructor")
	}
	if ft.IsVariadic() {
		return configErr(op, ft, "variadic constructors are not supported")
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return configErr(op, ft, "constructor must return T or (T, error)")
	}
	if ft.Out(0) == errorType {
		return configErr(op, ft, "constructor must not return only an error")
	}

	ctor := constructor{fn: fv, hasError: ft.NumOut() == 2}
	for i := 0; i < ft.NumIn(); i++ {
		ctor.params = append(ctor.params, ft.In(i))
	}
	target := indirect(ft.Out(0))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.initMaps()
	r.constructors[target] = append(r.constructors[target], ctor)
	return nil
}

// Constructors reports how many constructors are registered for t.
func (r *Registry) Constructors(t reflect.Type) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctors, ok := r.constructors[t]
	return len(ctors), ok
}

// pickConstructor returns the constructor with the fewest parameters.
func (r *Registry) pickConstructor(t reflect.Type) (constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctors := r.constructors[t]
	if len(ctors) == 0 {
		return constructor{}, false
	}
	best := ctors[0]
	for _, c := range ctors[1:] {
		if len(c.params) < len(best.params) {
			best = c
		}
	}
	return best, true
}

// RegisterEnum declares the full member set of an enumeration type t.
func (r *Registry) RegisterEnum(t reflect.Type, members ...any) error {
	const op = "RegisterEnum"
	if t == nil {
		return configErr(op, nil, "nil type")
	}
	if len(members) == 0 {
		return configErr(op, t, "no enum members")
	}
	values := make([]reflect.Value, 0, len(members))
	for _, m := range members {
		v := reflect.ValueOf(m)
		if !v.IsValid() || !v.Type().AssignableTo(t) {
			return configErr(op, t, "member "+typeName(reflect.TypeOf(m))+" is not assignable")
		}
		values = append(values, v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.initMaps()
	r.enums[t] = values
	return nil
}

// EnumMembers returns the registered members of t as values.
func (r *Registry) EnumMembers(t reflect.Type) ([]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values, ok := r.enums[t]
	if !ok {
		return nil, false
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}
	return out, true
}

func (r *Registry) enumValues(t reflect.Type) ([]reflect.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values, ok := r.enums[t]
	return values, ok
}

// RegisterTypeErrorHandler registers a handler consulted only for failures
// while resolving t. It takes precedence over the global handler.
func (r *Registry) RegisterTypeErrorHandler(t reflect.Type, fn ErrorHandler) error {
	const op = "RegisterTypeErrorHandler"
	if t == nil {
		return configErr(op, nil, "nil type")
	}
	if fn == nil {
		return configErr(op, t, "nil error handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initMaps()
	r.typeErrorHandlers[t] = fn
	return nil
}

// SetErrorHandler sets the global error handler. A nil fn clears it.
func (r *Registry) SetErrorHandler(fn ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorHandler = fn
}

// ErrorHandlerFor returns the per-type handler for t if present, else the
// global handler, else nil.
func (r *Registry) ErrorHandlerFor(t reflect.Type) ErrorHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.typeErrorHandlers[t]; ok {
		return fn
	}
	return r.errorHandler
}

// Clone returns an independent copy of the registry. The copy's random
// source is seeded from r's, so cloning a seeded registry stays deterministic.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seed := rand.Uint64()
	if r.rand != nil {
		seed = r.rand.uint64()
	}
	cp := newEmptyRegistry(seed)
	cp.recursionLimit = r.recursionLimit
	cp.errorHandler = r.errorHandler
	for k, v := range r.typeErrorHandlers {
		cp.typeErrorHandlers[k] = v
	}
	for k, v := range r.factories {
		cp.factories[k] = v
	}
	for k, v := range r.abstracts {
		cp.abstracts[k] = append([]reflect.Type(nil), v...)
	}
	for k, v := range r.constructors {
		cp.constructors[k] = append([]constructor(nil), v...)
	}
	for k, v := range r.enums {
		cp.enums[k] = append([]reflect.Value(nil), v...)
	}
	return cp
}

// intN draws from the registry's random source.
func (r *Registry) intN(n int) int {
	r.mu.RLock()
	src := r.rand
	r.mu.RUnlock()
	if src == nil {
		r.mu.Lock()
		if r.rand == nil {
			r.rand = newLockedRand(rand.Uint64())
		}
		src = r.rand
		r.mu.Unlock()
	}
	return src.intN(n)
}

// initMaps allocates the maps of a zero-value registry. r.mu must be held
// for writing.
func (r *Registry) initMaps() {
	if r.factories != nil {
		return
	}
	r.typeErrorHandlers = map[reflect.Type]ErrorHandler{}
	r.factories = map[reflect.Type]Factory{}
	r.abstracts = map[reflect.Type][]reflect.Type{}
	r.constructors = map[reflect.Type][]constructor{}
	r.enums = map[reflect.Type][]reflect.Value{}
}

var errorType = reflect.TypeFor[error]()

// indirect strips every pointer level from t.
func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
