package hydrate

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/sghaida/fixtures/internal/logger"
)

// MaxDepth bounds the number of nested frames in one run. The recursion
// limit only bounds attributes; constructor parameters and slice elements
// that refer back to their own type are stopped here instead.
const MaxDepth = 512

// runContext is the state of one hydrate call: the chain of types being
// resolved, innermost last. It is owned by a single goroutine and passed
// explicitly through every resolve call.
type runContext struct {
	id    uuid.UUID
	reg   *Registry
	log   logger.Logger
	stack []reflect.Type
}

func newRunContext(reg *Registry, log logger.Logger) *runContext {
	id := uuid.New()
	return &runContext{
		id:  id,
		reg: reg,
		log: log.With("run", id.String()),
	}
}

func (rc *runContext) push(t reflect.Type) {
	rc.stack = append(rc.stack, t)
}

// pop removes and returns the innermost frame. Popping an empty stack is a
// bug in the synthesizer.
func (rc *runContext) pop() reflect.Type {
	n := len(rc.stack)
	if n == 0 {
		panic("hydrate: pop on empty run stack")
	}
	t := rc.stack[n-1]
	rc.stack = rc.stack[:n-1]
	return t
}

// count returns how many active frames are credited to t.
func (rc *runContext) count(t reflect.Type) int {
	c := 0
	for _, s := range rc.stack {
		if s == t {
			c++
		}
	}
	return c
}

func (rc *runContext) depth() int { return len(rc.stack) }
