package hydrate

import (
	"context"
	"reflect"
	"sort"
)

// Entry names a hydratable type so tools can pick types at run time.
// Generated RegisterHydration files expose their types as entries.
type Entry struct {
	Name string
	Type reflect.Type

	many func(ctx context.Context, reg *Registry, n int) ([]any, error)
}

// EntryFor returns the catalogue entry for T under name.
func EntryFor[T any](name string) Entry {
	return Entry{
		Name: name,
		Type: reflect.TypeFor[T](),
		many: func(ctx context.Context, reg *Registry, n int) ([]any, error) {
			vals, err := HydrateMany[T](ctx, reg, n)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(vals))
			for i, v := range vals {
				out[i] = v
			}
			return out, nil
		},
	}
}

// HydrateMany runs HydrateMany for the entry's type and returns the values
// boxed as any.
func (e Entry) HydrateMany(ctx context.Context, reg *Registry, n int) ([]any, error) {
	if e.many == nil {
		return nil, configErr("HydrateMany", e.Type, "entry was not built with EntryFor")
	}
	return e.many(ctx, reg, n)
}

// Catalogue is a set of entries keyed by name.
type Catalogue map[string]Entry

// NewCatalogue indexes entries by name. Later entries replace earlier ones
// with the same name.
func NewCatalogue(entries ...Entry) Catalogue {
	c := make(Catalogue, len(entries))
	for _, e := range entries {
		c[e.Name] = e
	}
	return c
}

// Names returns the entry names in sorted order.
func (c Catalogue) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the entry registered under name.
func (c Catalogue) Lookup(name string) (Entry, bool) {
	e, ok := c[name]
	return e, ok
}
