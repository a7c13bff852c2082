package hydrate

import (
	"errors"
	"fmt"
	"reflect"
)

// Enum is implemented by enumeration types that can list their own members.
// It is consulted on the zero value of the type, so implement it on a value
// receiver.
//
//	type Color int
//
//	func (Color) EnumValues() []any { return []any{Red, Green, Blue} }
type Enum interface {
	EnumValues() []any
}

var enumType = reflect.TypeFor[Enum]()

var errNilConstructorResult = errors.New("hydrate: constructor returned nil")

// resolve produces a value for t. An invalid reflect.Value means absent: the
// caller stores the zero value of t.
//
// Each call is one frame. Pointer types without a factory do not push a
// frame of their own; their element frame carries the credit, so a *T and a
// T count as the same ancestor.
func resolve(rc *runContext, t reflect.Type) (reflect.Value, error) {
	factory, hasFactory := rc.reg.Factory(t)
	if t.Kind() == reflect.Pointer && !hasFactory {
		return resolvePointer(rc, t)
	}

	rc.push(indirect(t))
	defer rc.pop()

	if rc.depth() > MaxDepth {
		return fail(rc, t, PhaseConstruct, ErrDepthExceeded)
	}

	phase, v, err := dispatch(rc, t, factory, hasFactory)
	if err != nil {
		return fail(rc, t, phase, err)
	}
	return v, nil
}

// dispatch applies the synthesis rules in priority order; the first match wins.
func dispatch(rc *runContext, t reflect.Type, factory Factory, hasFactory bool) (Phase, reflect.Value, error) {
	if hasFactory {
		v, err := callFactory(t, factory)
		return PhaseFactory, v, err
	}

	if members, ok, err := enumMembers(rc.reg, t); err != nil || ok {
		if err != nil {
			return PhaseEnum, reflect.Value{}, err
		}
		return PhaseEnum, pick(rc.reg, t, members), nil
	}

	switch t.Kind() {
	case reflect.Slice:
		s := reflect.MakeSlice(t, 1, 1)
		if err := fillElements(rc, s); err != nil {
			return PhaseArray, reflect.Value{}, err
		}
		return PhaseArray, s, nil

	case reflect.Array:
		a := reflect.New(t).Elem()
		if err := fillElements(rc, a); err != nil {
			return PhaseArray, reflect.Value{}, err
		}
		return PhaseArray, a, nil

	case reflect.Map:
		// Containers are produced empty; their elements are never populated.
		return PhaseContainer, reflect.MakeMap(t), nil

	case reflect.Interface:
		v, err := resolveAbstract(rc, t)
		return PhaseAbstract, v, err
	}

	return construct(rc, t)
}

func resolvePointer(rc *runContext, t reflect.Type) (reflect.Value, error) {
	elem, err := resolve(rc, t.Elem())
	if err != nil {
		return fail(rc, t, PhasePointer, err)
	}
	if !elem.IsValid() {
		return reflect.Value{}, nil
	}
	p := reflect.New(t.Elem())
	p.Elem().Set(elem)
	return p, nil
}

// fail runs the error policy for the frame of t. Suppressed failures become
// the absent value. Propagated ones are wrapped once, at the innermost frame.
func fail(rc *runContext, t reflect.Type, phase Phase, err error) (reflect.Value, error) {
	if suppress(t, err, rc.reg) {
		rc.log.Debug("suppressed resolution error", "type", typeName(t), "phase", string(phase), "err", err)
		return reflect.Value{}, nil
	}
	if _, ok := err.(*ResolutionError); ok {
		return reflect.Value{}, err
	}
	return reflect.Value{}, &ResolutionError{Phase: phase, Type: t, Err: err}
}

func callFactory(t reflect.Type, fn Factory) (v reflect.Value, err error) {
	defer recoverInto(&err)

	out, err := fn()
	if err != nil {
		return reflect.Value{}, err
	}
	if out == nil {
		return reflect.Value{}, nil
	}
	return assignTo(t, reflect.ValueOf(out))
}

// assignTo returns v as a value of exactly type t.
func assignTo(t reflect.Type, v reflect.Value) (reflect.Value, error) {
	if v.Type() == t {
		return v, nil
	}
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: got %s, want %s", ErrFactoryResult, typeName(v.Type()), typeName(t))
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out, nil
}

func enumMembers(reg *Registry, t reflect.Type) ([]reflect.Value, bool, error) {
	if values, ok := reg.enumValues(t); ok {
		return values, true, nil
	}
	if t.Kind() == reflect.Interface || !t.Implements(enumType) {
		return nil, false, nil
	}

	declared, err := declaredMembers(t)
	if err != nil {
		return nil, false, err
	}
	if len(declared) == 0 {
		return nil, false, fmt.Errorf("hydrate: enum %s declares no members", typeName(t))
	}
	values := make([]reflect.Value, 0, len(declared))
	for _, m := range declared {
		v := reflect.ValueOf(m)
		if !v.IsValid() || !v.Type().AssignableTo(t) {
			return nil, false, fmt.Errorf("%w: enum member %s of %s", ErrFactoryResult, typeName(reflect.TypeOf(m)), typeName(t))
		}
		values = append(values, v)
	}
	return values, true, nil
}

// declaredMembers asks the zero value of t for its members.
func declaredMembers(t reflect.Type) (members []any, err error) {
	defer recoverInto(&err)
	return reflect.Zero(t).Interface().(Enum).EnumValues(), nil
}

// pick chooses uniformly among all members.
func pick(reg *Registry, t reflect.Type, members []reflect.Value) reflect.Value {
	v, _ := assignTo(t, members[reg.intN(len(members))])
	return v
}

// fillElements resolves every element of an addressable slice or array.
func fillElements(rc *runContext, seq reflect.Value) error {
	elemType := seq.Type().Elem()
	for i := 0; i < seq.Len(); i++ {
		ev, err := resolve(rc, elemType)
		if err != nil {
			return err
		}
		if ev.IsValid() {
			seq.Index(i).Set(ev)
		}
	}
	return nil
}

// resolveAbstract picks one registered candidate for the interface t and
// constructs it. The frame stays credited to t.
func resolveAbstract(rc *runContext, t reflect.Type) (reflect.Value, error) {
	candidates, ok := rc.reg.Abstract(t)
	if !ok || len(candidates) == 0 {
		return reflect.Value{}, fmt.Errorf("%w %s", ErrNoAbstractMapping, typeName(t))
	}
	chosen := candidates[rc.reg.intN(len(candidates))]

	base, depth := chosen, 0
	for base.Kind() == reflect.Pointer {
		base, depth = base.Elem(), depth+1
	}
	_, v, err := construct(rc, base)
	if err != nil {
		return reflect.Value{}, err
	}
	for ; depth > 0; depth-- {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}
	return assignTo(t, v)
}

// construct instantiates t through its registered constructor with the
// fewest parameters, or its zero value when none is registered, then fills
// the settable attributes of structs.
func construct(rc *runContext, t reflect.Type) (Phase, reflect.Value, error) {
	v := reflect.New(t).Elem()

	if ctor, ok := rc.reg.pickConstructor(t); ok {
		out, err := callConstructor(rc, t, ctor)
		if err != nil {
			return PhaseConstruct, reflect.Value{}, err
		}
		v.Set(out)
	} else if !instantiable(t) {
		return PhaseConstruct, reflect.Value{}, fmt.Errorf("%w %s", ErrNoConstructor, typeName(t))
	}

	if t.Kind() == reflect.Struct {
		if err := populate(rc, v); err != nil {
			return PhaseAttribute, reflect.Value{}, err
		}
	}
	return PhaseConstruct, v, nil
}

func instantiable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Interface, reflect.Invalid:
		return false
	default:
		return true
	}
}

// callConstructor resolves each parameter in declared order and calls the
// constructor. Pointer results are dereferenced down to t.
func callConstructor(rc *runContext, t reflect.Type, ctor constructor) (reflect.Value, error) {
	args := make([]reflect.Value, len(ctor.params))
	for i, p := range ctor.params {
		a, err := resolve(rc, p)
		if err != nil {
			return reflect.Value{}, err
		}
		if !a.IsValid() {
			a = reflect.Zero(p)
		}
		args[i] = a
	}

	out, err := invoke(ctor, args)
	if err != nil {
		return reflect.Value{}, err
	}
	for out.Type() != t && out.Kind() == reflect.Pointer {
		if out.IsNil() {
			return reflect.Value{}, errNilConstructorResult
		}
		out = out.Elem()
	}
	return assignTo(t, out)
}

func invoke(ctor constructor, args []reflect.Value) (out reflect.Value, err error) {
	defer recoverInto(&err)

	res := ctor.fn.Call(args)
	if ctor.hasError && !res[1].IsNil() {
		return reflect.Value{}, res[1].Interface().(error)
	}
	return res[0], nil
}

// populate assigns every settable attribute of the struct v whose type has
// at most RecursionLimit ancestors on the stack. Attributes over the limit
// keep whatever the constructor left in them.
func populate(rc *runContext, v reflect.Value) error {
	t := v.Type()
	limit := rc.reg.RecursionLimit()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("hydrate") == "-" {
			continue
		}
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if rc.count(indirect(field.Type)) > limit {
			continue
		}

		av, err := resolve(rc, field.Type)
		if err != nil {
			return err
		}
		if av.IsValid() {
			fv.Set(av)
		} else {
			fv.Set(reflect.Zero(field.Type))
		}
	}
	return nil
}

func recoverInto(err *error) {
	if rec := recover(); rec != nil {
		*err = &PanicError{Value: rec}
	}
}
