// Package cascade runs ordered fallback strategies and keeps the first result
// that succeeds.
package cascade

import "context"

// Strategy produces a candidate value. A zero value means "no result" and the
// next strategy is tried.
type Strategy[T comparable] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome reports which strategy produced the value and the errors collected
// from strategies that failed along the way.
type Outcome[T comparable] struct {
	Value    T
	Strategy string
	Errors   map[string]error
}

// First evaluates strategies in order and stops at the first non-zero value.
// Strategies after the winner are never invoked. A cancelled context stops the
// cascade between strategies.
func First[T comparable](ctx context.Context, strategies ...Strategy[T]) Outcome[T] {
	var zero T
	out := Outcome[T]{}
	for _, s := range strategies {
		if ctx.Err() != nil {
			return out
		}
		v, err := s.Run(ctx)
		if err != nil {
			if out.Errors == nil {
				out.Errors = make(map[string]error)
			}
			out.Errors[s.Name] = err
			continue
		}
		if v != zero {
			out.Value = v
			out.Strategy = s.Name
			return out
		}
	}
	return out
}

// FirstNonEmpty returns the first non-empty string, used for per-field merges.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
