package hydrate

import (
	"context"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sghaida/fixtures/internal/logger"
)

// Hydrate synthesizes a fully populated T on the calling goroutine.
//
// A nil reg uses NewRegistry(). The logger is taken from ctx (see
// logger.ContextWithLogger); ctx is not otherwise consulted, a run is never
// interrupted once started.
//
// When the run legitimately produces no value (suppressed failure, nil
// factory result) the zero T is returned with a nil error.
func Hydrate[T any](ctx context.Context, reg *Registry) (T, error) {
	var zero T
	if reg == nil {
		reg = NewRegistry()
	}
	t := reflect.TypeFor[T]()

	rc := newRunContext(reg, logger.FromContext(ctx))
	started := time.Now()
	rc.log.Debug("hydrate started", "type", typeName(t))

	v, err := resolve(rc, t)
	if err != nil {
		rc.log.Debug("hydrate failed", "type", typeName(t), "err", err)
		return zero, err
	}
	rc.log.Debug("hydrate finished", "type", typeName(t), "elapsed", time.Since(started))

	if !v.IsValid() {
		return zero, nil
	}
	out, ok := v.Interface().(T)
	if !ok {
		// interface T holding a nil value
		return zero, nil
	}
	return out, nil
}

// MustHydrate is Hydrate with a background context that panics on error.
// Meant for tests.
func MustHydrate[T any](reg *Registry) T {
	v, err := Hydrate[T](context.Background(), reg)
	if err != nil {
		panic(err)
	}
	return v
}

// Future is the pending result of HydrateAsync.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// HydrateAsync runs Hydrate on its own goroutine and returns immediately.
// A panic on that goroutine fails the future with a *PanicError.
func HydrateAsync[T any](ctx context.Context, reg *Registry) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer recoverInto(&f.err)
		f.val, f.err = Hydrate[T](ctx, reg)
	}()
	return f
}

// Done is closed once the run has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Ready reports whether the run has finished without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the run finishes or ctx is done. Giving up on ctx does
// not stop the run; a later Await still observes its result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// HydrateMany performs n independent runs concurrently against one registry.
// The first failure is returned; results are in run order.
func HydrateMany[T any](ctx context.Context, reg *Registry, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	if reg == nil {
		reg = NewRegistry()
	}

	out := make([]T, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() (err error) {
			defer recoverInto(&err)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out[i], err = Hydrate[T](ctx, reg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
