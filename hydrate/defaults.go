package hydrate

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel defaults used by NewRegistry.
const (
	DefaultIntegral = 1
	DefaultFloat    = 1.1
)

// DefaultDecimal is the sentinel used for decimal.Decimal.
var DefaultDecimal = decimal.RequireFromString("1.1")

func value[T any](v T) Factory {
	return func() (any, error) { return v, nil }
}

func seedDefaults(r *Registry) {
	defaults := map[reflect.Type]Factory{
		reflect.TypeFor[int]():     value(int(DefaultIntegral)),
		reflect.TypeFor[int8]():    value(int8(DefaultIntegral)),
		reflect.TypeFor[int16]():   value(int16(DefaultIntegral)),
		reflect.TypeFor[int32]():   value(int32(DefaultIntegral)),
		reflect.TypeFor[int64]():   value(int64(DefaultIntegral)),
		reflect.TypeFor[uint]():    value(uint(DefaultIntegral)),
		reflect.TypeFor[uint16]():  value(uint16(DefaultIntegral)),
		reflect.TypeFor[uint32]():  value(uint32(DefaultIntegral)),
		reflect.TypeFor[uint64]():  value(uint64(DefaultIntegral)),
		reflect.TypeFor[uintptr](): value(uintptr(DefaultIntegral)),

		// byte is the one integral kind left at its zero value.
		reflect.TypeFor[uint8](): value(uint8(0)),

		reflect.TypeFor[float32]():    value(float32(DefaultFloat)),
		reflect.TypeFor[float64]():    value(float64(DefaultFloat)),
		reflect.TypeFor[complex64]():  value(complex64(complex(DefaultFloat, 0))),
		reflect.TypeFor[complex128](): value(complex(DefaultFloat, 0)),

		reflect.TypeFor[bool](): value(false),
		reflect.TypeFor[string](): func() (any, error) {
			return uuid.NewString(), nil
		},

		reflect.TypeFor[decimal.Decimal](): value(DefaultDecimal),
		reflect.TypeFor[uuid.UUID](): func() (any, error) {
			return uuid.New(), nil
		},
		reflect.TypeFor[time.Time](): func() (any, error) {
			return time.Now().UTC().Truncate(time.Second), nil
		},
	}
	for t, fn := range defaults {
		r.factories[t] = fn
	}
}
