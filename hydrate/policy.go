package hydrate

import "reflect"

// suppress decides whether a failure resolving t is swallowed. Without any
// handler the answer is always no.
func suppress(t reflect.Type, err error, reg *Registry) bool {
	handler := reg.ErrorHandlerFor(t)
	if handler == nil {
		return false
	}
	return handler(t, err)
}
