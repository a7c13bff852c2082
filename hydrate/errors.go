package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError returned from registry mutators.
	ErrInvalidConfig = errors.New("hydrate: invalid configuration")

	// ErrNoAbstractMapping is returned when an interface type is requested
	// without a registered concrete mapping.
	ErrNoAbstractMapping = errors.New("hydrate: no concrete mapping for abstract type")

	// ErrNoConstructor is returned for kinds that cannot be instantiated
	// (func, chan, unsafe.Pointer) and have no factory.
	ErrNoConstructor = errors.New("hydrate: no constructor for type")

	// ErrDepthExceeded is returned when a single run nests more than MaxDepth frames.
	ErrDepthExceeded = errors.New("hydrate: maximum resolution depth exceeded")

	// ErrPanic is matched by every *PanicError.
	ErrPanic = errors.New("hydrate: panic during resolution")

	// ErrFactoryResult is returned when a factory or constructor produces a value
	// that cannot be assigned to the requested type.
	ErrFactoryResult = errors.New("hydrate: result not assignable to requested type")
)

// Phase names the synthesis rule that was running when a frame failed.
type Phase string

const (
	PhaseFactory   Phase = "factory"
	PhaseEnum      Phase = "enum"
	PhaseArray     Phase = "array"
	PhaseContainer Phase = "container"
	PhasePointer   Phase = "pointer"
	PhaseAbstract  Phase = "abstract"
	PhaseConstruct Phase = "construct"
	PhaseAttribute Phase = "attribute"
)

// ConfigError is returned synchronously by registry mutators on invalid input.
// The registry is left untouched when a ConfigError is returned.
type ConfigError struct {
	// Op is the registry operation, e.g. "RegisterAbstract".
	Op string
	// Type is the key being registered, nil when the operation has no key.
	Type reflect.Type
	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	// Example: hydrate: invalid config for "RegisterAbstract" on type "models.Shape": no candidates
	msg := "hydrate: invalid config for " + strconv.Quote(e.Op)
	if e.Type != nil {
		msg += " on type " + strconv.Quote(typeName(e.Type))
	}
	return msg + ": " + e.Reason
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// ResolutionError is returned when a frame fails and no error handler
// suppressed it. Err is the original cause.
type ResolutionError struct {
	Phase Phase
	Type  reflect.Type
	Err   error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	// Example: hydrate: error in "factory" converting type "float64": boom
	return "hydrate: error in " + strconv.Quote(string(e.Phase)) +
		" converting type " + strconv.Quote(typeName(e.Type)) + ": " + e.Err.Error()
}

// Unwrap returns the original cause.
func (e *ResolutionError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking factory, constructor
// or hydrate worker.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPanic.Error(), e.Value)
}

// Is reports whether target is ErrPanic.
func (e *PanicError) Is(target error) bool { return target == ErrPanic }

// Unwrap returns the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func configErr(op string, t reflect.Type, reason string) error {
	return &ConfigError{Op: op, Type: t, Reason: reason}
}
