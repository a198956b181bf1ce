package timerset

import (
	"context"
	"sync"
)

type scopeKey struct{}

// scope builds its registry on first use. A failed build is remembered
// and reported again on every later use.
type scope struct {
	once sync.Once
	reg  *Registry
	err  error
	opts []Option
}

func (s *scope) registry() *Registry {
	s.once.Do(func() {
		s.reg, s.err = New(s.opts...)
	})
	if s.err != nil {
		panic(s.err)
	}
	return s.reg
}

var process scope

// Default returns the process-wide registry, building it on first use.
// It panics if the cycle counter cannot be calibrated.
func Default() *Registry {
	return process.registry()
}

// NewContext returns a context carrying r. A nil r leaves ctx unchanged.
func NewContext(ctx context.Context, r *Registry) context.Context {
	if r == nil {
		return ctx
	}
	s := &scope{reg: r}
	s.once.Do(func() {})
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithScope returns a context with its own registry, built with opts the
// first time FromContext is called on it or a derived context. The
// registry is dropped together with the context.
func WithScope(ctx context.Context, opts ...Option) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{opts: opts})
}

// FromContext returns the registry attached to ctx by the nearest
// NewContext or WithScope. It panics if that scope's registry could not
// be built.
//
// A context without a scope gets Default, which is shared by the whole
// process: unrelated goroutines timing the same name through such
// contexts add to the same stopwatch. Use WithScope to isolate them.
func FromContext(ctx context.Context) *Registry {
	if s, ok := ctx.Value(scopeKey{}).(*scope); ok {
		return s.registry()
	}
	return Default()
}

// Time runs work against the registry for ctx.
func Time(ctx context.Context, name string, work func()) {
	FromContext(ctx).Time(name, work)
}

// CloneSnapshot returns an independent copy of the registry for ctx.
func CloneSnapshot(ctx context.Context) *Registry {
	return FromContext(ctx).Clone()
}

// PrintAll prints the registry for ctx.
func PrintAll(ctx context.Context) {
	FromContext(ctx).Print()
}
