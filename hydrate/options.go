package hydrate

import (
	"reflect"
)

// Option mutates a registry during Configure.
type Option func(*Registry) error

// Configure builds a default registry and applies opts in order.
// The first failing option aborts configuration and its error is returned.
func Configure(opts ...Option) (*Registry, error) {
	r := NewRegistry()
	if err := r.Apply(opts...); err != nil {
		return nil, err
	}
	return r, nil
}

// Apply applies opts to an existing registry in order, stopping at the first error.
func (r *Registry) Apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return err
		}
	}
	return nil
}

// Must returns reg or panics with err. Useful for package-level fixtures.
func Must(reg *Registry, err error) *Registry {
	if err != nil {
		panic(err)
	}
	return reg
}

// WithRecursionLimit sets the recursion limit.
func WithRecursionLimit(n int) Option {
	return func(r *Registry) error { return r.SetRecursionLimit(n) }
}

// WithSeed makes every random choice of the registry deterministic.
func WithSeed(seed uint64) Option {
	return func(r *Registry) error {
		r.Seed(seed)
		return nil
	}
}

// WithFactory registers fn as the factory for T.
func WithFactory[T any](fn func() (T, error)) Option {
	return func(r *Registry) error { return OnType(r, fn) }
}

// WithAbstract maps the interface T to concrete candidates.
func WithAbstract[T any](candidates ...reflect.Type) Option {
	return func(r *Registry) error { return MapAbstract[T](r, candidates...) }
}

// WithConstructor registers a constructor func; see Registry.RegisterConstructor.
func WithConstructor(fn any) Option {
	return func(r *Registry) error { return r.RegisterConstructor(fn) }
}

// WithEnum declares the members of the enumeration T.
func WithEnum[T any](members ...T) Option {
	return func(r *Registry) error { return MapEnum(r, members...) }
}

// WithTypeErrorHandler registers an error handler for failures resolving T.
func WithTypeErrorHandler[T any](fn ErrorHandler) Option {
	return func(r *Registry) error { return HandleTypeError[T](r, fn) }
}

// WithErrorHandler sets the global error handler.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(r *Registry) error {
		r.SetErrorHandler(fn)
		return nil
	}
}

// OnType registers fn as the exact-type factory for T.
func OnType[T any](r *Registry, fn func() (T, error)) error {
	t := reflect.TypeFor[T]()
	if fn == nil {
		return configErr("RegisterFactory", t, "nil factory")
	}
	return r.RegisterFactory(t, func() (any, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// MapAbstract maps the interface T to concrete candidates.
func MapAbstract[T any](r *Registry, candidates ...reflect.Type) error {
	return r.RegisterAbstract(reflect.TypeFor[T](), candidates...)
}

// MapEnum declares the members of the enumeration T.
func MapEnum[T any](r *Registry, members ...T) error {
	values := make([]any, len(members))
	for i, m := range members {
		values[i] = m
	}
	return r.RegisterEnum(reflect.TypeFor[T](), values...)
}

// HandleTypeError registers fn for failures resolving T.
func HandleTypeError[T any](r *Registry, fn ErrorHandler) error {
	return r.RegisterTypeErrorHandler(reflect.TypeFor[T](), fn)
}
