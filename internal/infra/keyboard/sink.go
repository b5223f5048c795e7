package keyboard

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/time/rate"
)

// Sink receives keystrokes.
type Sink interface {
	SendString(ctx context.Context, s string) error
	SendEnter(ctx context.Context) error
}

// WriterSink types into an io.Writer.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	limiter *rate.Limiter
}

// NewWriterSink returns a sink writing to w. keysPerSecond <= 0 writes
// each string in one call; otherwise keystrokes are paced.
func NewWriterSink(w io.Writer, keysPerSecond float64) *WriterSink {
	s := &WriterSink{w: w}
	if keysPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(keysPerSecond), 1)
	}
	return s
}

// SendString types s.
func (s *WriterSink) SendString(ctx context.Context, str string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limiter == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(s.w, str); err != nil {
			return fmt.Errorf("keyboard: write: %w", err)
		}
		return nil
	}

	for i := 0; i < len(str); i++ {
		if err := s.key(ctx, str[i]); err != nil {
			return err
		}
	}
	return nil
}

// SendEnter types a newline.
func (s *WriterSink) SendEnter(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key(ctx, '\n')
}

func (s *WriterSink) key(ctx context.Context, c byte) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("keyboard: %w", err)
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte{c}); err != nil {
		return fmt.Errorf("keyboard: write: %w", err)
	}
	return nil
}

// Discard is a Sink that drops everything. Commands that print the token
// through the output formatter instead of typing it use it.
var Discard Sink = discard{}

type discard struct{}

func (discard) SendString(ctx context.Context, _ string) error { return ctx.Err() }
func (discard) SendEnter(ctx context.Context) error            { return ctx.Err() }

// WithoutEnter wraps s so that SendEnter only checks ctx. The token is
// typed but not submitted.
func WithoutEnter(s Sink) Sink {
	return noEnter{s}
}

type noEnter struct{ Sink }

func (noEnter) SendEnter(ctx context.Context) error { return ctx.Err() }
