// Package export hands finished records to downstream collaborators.
package export

import (
	"context"
	"errors"

	"github.com/leadspider/leadspider/core"
)

// Sink consumes the records of one run.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []core.OutputRecord) error
}

// WriteAll runs every sink and joins their errors. A failing sink does not
// stop the others.
func WriteAll(ctx context.Context, sinks []Sink, records []core.OutputRecord) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Write(ctx, records); err != nil {
			errs = append(errs, &SinkError{Sink: sink.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return e.Sink + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
