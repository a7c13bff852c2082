package hydrate

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape interface{ Area() float64 }

type circle struct{ R float64 }

func (c circle) Area() float64 { return 3 * c.R * c.R }

type square struct{ S float64 }

func (s *square) Area() float64 { return s.S * s.S }

type level int

func requireConfigErr(t *testing.T, err error, op string) *ConfigError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, op, ce.Op)
	return ce
}

//
// -----------------------------------------------------------------------------
// Defaults and recursion limit
// -----------------------------------------------------------------------------

func TestNewRegistry_SeedsDefaults(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, typ := range []reflect.Type{
		reflect.TypeFor[int](), reflect.TypeFor[int64](), reflect.TypeFor[uint8](),
		reflect.TypeFor[float64](), reflect.TypeFor[bool](), reflect.TypeFor[string](),
		reflect.TypeFor[decimal.Decimal](), reflect.TypeFor[uuid.UUID](), reflect.TypeFor[time.Time](),
	} {
		_, ok := r.Factory(typ)
		assert.True(t, ok, "missing default for %s", typ)
	}

	assert.Equal(t, 0, r.RecursionLimit())
	assert.Nil(t, r.ErrorHandlerFor(reflect.TypeFor[int]()))
}

func TestRegistry_SetRecursionLimit(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.SetRecursionLimit(3))
	assert.Equal(t, 3, r.RecursionLimit())

	ce := requireConfigErr(t, r.SetRecursionLimit(-1), "SetRecursionLimit")
	assert.Nil(t, ce.Type)
	assert.Equal(t, 3, r.RecursionLimit(), "failed call must not change the limit")
}

//
// -----------------------------------------------------------------------------
// Factories
// -----------------------------------------------------------------------------

func TestRegistry_RegisterFactory(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	typ := reflect.TypeFor[level]()

	requireConfigErr(t, r.RegisterFactory(nil, value(1)), "RegisterFactory")
	requireConfigErr(t, r.RegisterFactory(typ, nil), "RegisterFactory")
	requireConfigErr(t, OnType[level](r, nil), "RegisterFactory")

	_, ok := r.Factory(typ)
	assert.False(t, ok)

	require.NoError(t, r.RegisterFactory(typ, value(level(4))))
	require.NoError(t, r.RegisterFactory(typ, value(level(9))))

	fn, ok := r.Factory(typ)
	require.True(t, ok)
	got, err := fn()
	require.NoError(t, err)
	assert.Equal(t, level(9), got)
}

func TestOnType_PropagatesFactoryError(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, OnType(r, func() (level, error) { return 0, boom }))

	fn, ok := r.Factory(reflect.TypeFor[level]())
	require.True(t, ok)
	v, err := fn()
	assert.Nil(t, v)
	assert.ErrorIs(t, err, boom)
}

//
// -----------------------------------------------------------------------------
// Abstract mappings
// -----------------------------------------------------------------------------

func TestRegistry_RegisterAbstract_Validation(t *testing.T) {
	t.Parallel()

	shapeT := reflect.TypeFor[shape]()

	testCases := []struct {
		name       string
		key        reflect.Type
		candidates []reflect.Type
		wantReason string
	}{
		{name: "nil key", key: nil, candidates: []reflect.Type{reflect.TypeFor[circle]()}, wantReason: "nil type"},
		{name: "non-interface key", key: reflect.TypeFor[circle](), candidates: []reflect.Type{reflect.TypeFor[circle]()}, wantReason: "not an interface"},
		{name: "empty candidates", key: shapeT, candidates: nil, wantReason: "no candidate"},
		{name: "nil candidate", key: shapeT, candidates: []reflect.Type{nil}, wantReason: "nil candidate"},
		{name: "abstract candidate", key: shapeT, candidates: []reflect.Type{reflect.TypeFor[shape]()}, wantReason: "is abstract"},
		{name: "not assignable", key: shapeT, candidates: []reflect.Type{reflect.TypeFor[square]()}, wantReason: "not assignable"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRegistry()
			ce := requireConfigErr(t, r.RegisterAbstract(tc.key, tc.candidates...), "RegisterAbstract")
			assert.Contains(t, ce.Reason, tc.wantReason)
		})
	}
}

func TestRegistry_RegisterAbstract_FailureKeepsPreviousMapping(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	shapeT := reflect.TypeFor[shape]()
	require.NoError(t, MapAbstract[shape](r, reflect.TypeFor[circle]()))

	err := r.RegisterAbstract(shapeT, reflect.TypeFor[*square](), reflect.TypeFor[square]())
	requireConfigErr(t, err, "RegisterAbstract")

	got, ok := r.Abstract(shapeT)
	require.True(t, ok)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[circle]()}, got)
}

func TestRegistry_RegisterAbstract_DedupesAndCopies(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	shapeT := reflect.TypeFor[shape]()
	c, s := reflect.TypeFor[circle](), reflect.TypeFor[*square]()

	require.NoError(t, r.RegisterAbstract(shapeT, c, s, c, s))

	got, ok := r.Abstract(shapeT)
	require.True(t, ok)
	assert.Equal(t, []reflect.Type{c, s}, got)

	got[0] = nil
	again, _ := r.Abstract(shapeT)
	assert.Equal(t, c, again[0], "Abstract must return a copy")

	_, ok = r.Abstract(reflect.TypeFor[error]())
	assert.False(t, ok)
}

//
// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func TestRegistry_RegisterConstructor(t *testing.T) {
	t.Parallel()

	var nilFunc func() circle

	testCases := []struct {
		name    string
		fn      any
		wantErr bool
	}{
		{name: "nil", fn: nil, wantErr: true},
		{name: "typed nil func", fn: nilFunc, wantErr: true},
		{name: "not a func", fn: 42, wantErr: true},
		{name: "variadic", fn: func(...int) circle { return circle{} }, wantErr: true},
		{name: "no results", fn: func() {}, wantErr: true},
		{name: "second result not error", fn: func() (circle, int) { return circle{}, 0 }, wantErr: true},
		{name: "only error", fn: func() error { return nil }, wantErr: true},
		{name: "value result", fn: func(r float64) circle { return circle{R: r} }},
		{name: "pointer result with error", fn: func() (*circle, error) { return &circle{}, nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRegistry()
			err := r.RegisterConstructor(tc.fn)
			if tc.wantErr {
				requireConfigErr(t, err, "RegisterConstructor")
				_, ok := r.Constructors(reflect.TypeFor[circle]())
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			n, ok := r.Constructors(reflect.TypeFor[circle]())
			assert.True(t, ok)
			assert.Equal(t, 1, n)
		})
	}
}

func TestRegistry_PickConstructor(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	circleT := reflect.TypeFor[circle]()

	_, ok := r.pickConstructor(circleT)
	assert.False(t, ok)

	require.NoError(t, r.RegisterConstructor(func(a, b float64) circle { return circle{R: a + b} }))
	require.NoError(t, r.RegisterConstructor(func(a float64) *circle { return &circle{R: a} }))
	require.NoError(t, r.RegisterConstructor(func(b bool) circle { return circle{} }))

	best, ok := r.pickConstructor(circleT)
	require.True(t, ok)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[float64]()}, best.params)
	assert.Equal(t, reflect.TypeFor[*circle](), best.fn.Type().Out(0))
}

//
// -----------------------------------------------------------------------------
// Enums and handlers
// -----------------------------------------------------------------------------

func TestRegistry_RegisterEnum(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	levelT := reflect.TypeFor[level]()

	requireConfigErr(t, r.RegisterEnum(nil, level(1)), "RegisterEnum")
	requireConfigErr(t, r.RegisterEnum(levelT), "RegisterEnum")
	requireConfigErr(t, r.RegisterEnum(levelT, level(1), "high"), "RegisterEnum")
	requireConfigErr(t, r.RegisterEnum(levelT, nil), "RegisterEnum")

	_, ok := r.EnumMembers(levelT)
	assert.False(t, ok)

	require.NoError(t, MapEnum(r, level(1), level(2)))
	members, ok := r.EnumMembers(levelT)
	require.True(t, ok)
	assert.Equal(t, []any{level(1), level(2)}, members)
}

func TestRegistry_ErrorHandlerPrecedence(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	intT := reflect.TypeFor[int]()

	requireConfigErr(t, r.RegisterTypeErrorHandler(nil, func(reflect.Type, error) bool { return true }), "RegisterTypeErrorHandler")
	requireConfigErr(t, r.RegisterTypeErrorHandler(intT, nil), "RegisterTypeErrorHandler")

	var calls []string
	r.SetErrorHandler(func(reflect.Type, error) bool {
		calls = append(calls, "global")
		return false
	})
	require.NoError(t, HandleTypeError[int](r, func(reflect.Type, error) bool {
		calls = append(calls, "int")
		return true
	}))

	assert.True(t, suppress(intT, errors.New("x"), r))
	assert.False(t, suppress(reflect.TypeFor[string](), errors.New("x"), r))
	assert.Equal(t, []string{"int", "global"}, calls)

	r.SetErrorHandler(nil)
	assert.Nil(t, r.ErrorHandlerFor(reflect.TypeFor[string]()))
	assert.False(t, suppress(reflect.TypeFor[string](), errors.New("x"), r))
}

//
// -----------------------------------------------------------------------------
// Clone, Configure and seeding
// -----------------------------------------------------------------------------

func TestRegistry_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	var nilReg *Registry
	assert.Nil(t, nilReg.Clone())

	r := Must(Configure(
		WithRecursionLimit(2),
		WithAbstract[shape](reflect.TypeFor[circle]()),
		WithEnum(level(1), level(2)),
		WithConstructor(func() circle { return circle{R: 1} }),
	))
	cp := r.Clone()

	require.NoError(t, cp.SetRecursionLimit(5))
	require.NoError(t, MapAbstract[shape](cp, reflect.TypeFor[*square]()))
	require.NoError(t, cp.RegisterConstructor(func() circle { return circle{R: 2} }))
	require.NoError(t, OnType(cp, func() (level, error) { return 3, nil }))

	assert.Equal(t, 2, r.RecursionLimit())
	got, _ := r.Abstract(reflect.TypeFor[shape]())
	assert.Equal(t, []reflect.Type{reflect.TypeFor[circle]()}, got)
	n, _ := r.Constructors(reflect.TypeFor[circle]())
	assert.Equal(t, 1, n)
	_, ok := r.Factory(reflect.TypeFor[level]())
	assert.False(t, ok)

	members, ok := cp.EnumMembers(reflect.TypeFor[level]())
	require.True(t, ok)
	assert.Len(t, members, 2)
}

func TestConfigure_StopsAtFirstFailingOption(t *testing.T) {
	t.Parallel()

	applied := false
	reg, err := Configure(
		WithRecursionLimit(1),
		nil,
		WithAbstract[circle](reflect.TypeFor[circle]()),
		func(*Registry) error {
			applied = true
			return nil
		},
	)
	assert.Nil(t, reg)
	requireConfigErr(t, err, "RegisterAbstract")
	assert.False(t, applied)

	assert.Panics(t, func() { Must(reg, err) })
}

func TestRegistry_SeedIsDeterministic(t *testing.T) {
	t.Parallel()

	draw := func(r *Registry) []int {
		out := make([]int, 20)
		for i := range out {
			out[i] = r.intN(1000)
		}
		return out
	}

	a, b := NewRegistry(), NewRegistry()
	a.Seed(5)
	b.Seed(5)
	assert.Equal(t, draw(a), draw(b))

	c1, c2 := a.Clone(), b.Clone()
	assert.Equal(t, draw(c1), draw(c2))
}

func TestRegistry_ZeroValueIsUsable(t *testing.T) {
	t.Parallel()

	var r Registry
	require.NoError(t, r.RegisterFactory(reflect.TypeFor[int](), func() (any, error) { return 7, nil }))
	require.NoError(t, MapAbstract[shape](&r, reflect.TypeFor[circle]()))
	require.NoError(t, r.RegisterConstructor(func() circle { return circle{R: 2} }))
	require.NoError(t, r.RegisterEnum(reflect.TypeFor[level](), level(3)))
	require.NoError(t, HandleTypeError[level](&r, func(reflect.Type, error) bool { return true }))

	n, err := Hydrate[int](context.Background(), &r)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	lv, err := Hydrate[level](context.Background(), &r)
	require.NoError(t, err)
	assert.Equal(t, level(3), lv)

	s, err := Hydrate[shape](context.Background(), &r)
	require.NoError(t, err)
	assert.IsType(t, circle{}, s)

	assert.Equal(t, 0, r.intN(1))
	assert.NotNil(t, r.Clone())
}

func TestRegistry_MutationDuringHydrate(t *testing.T) {
	t.Parallel()

	type holder struct {
		Shape shape
		Level int
		Name  string
	}

	r := Must(Configure(WithAbstract[shape](reflect.TypeFor[circle]())))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 500 {
			_ = r.SetRecursionLimit(i % 3)
			_ = OnType(r, func() (int, error) { return i, nil })
			_ = MapAbstract[shape](r, reflect.TypeFor[circle](), reflect.TypeFor[*square]())
			_ = r.RegisterEnum(reflect.TypeFor[level](), level(i))
			r.Seed(uint64(i))
			r.SetErrorHandler(nil)
		}
	}()

	for range 200 {
		v, err := Hydrate[holder](context.Background(), r)
		require.NoError(t, err)
		assert.NotNil(t, v.Shape)
		assert.NotEmpty(t, v.Name)
	}
	wg.Wait()
}
