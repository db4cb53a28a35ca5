package convert

import (
	"context"
	"errors"
	"fmt"
)

// ErrConversion is matched by every conversion Error
var ErrConversion = errors.New("markdown conversion failed")

// Converter turns markdown text into HTML
type Converter interface {
	Convert(ctx context.Context, markdown string) (string, error)
}

// Error reports a failed conversion: the service was unreachable, answered
// with a non-200 status, or the local engine rejected the input.
type Error struct {
	Converter string
	Status    int
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s conversion failed (status %d): %v", e.Converter, e.Status, e.Err)
	}
	return fmt.Sprintf("%s conversion failed: %v", e.Converter, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrConversion
}

// Func adapts a plain function to Converter
type Func func(ctx context.Context, markdown string) (string, error)

func (f Func) Convert(ctx context.Context, markdown string) (string, error) {
	return f(ctx, markdown)
}
