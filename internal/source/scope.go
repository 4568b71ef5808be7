package source

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptedExitCode is the process exit status after a trapped signal.
const InterruptedExitCode = 130

// Scope owns resources whose release must happen on every exit path of a
// run. Cleanups run once, last registered first.
type Scope struct {
	mu       sync.Mutex
	cleanups []cleanup
	closed   bool
}

type cleanup struct {
	name string
	fn   func() error
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Defer registers fn to run when the scope closes. Registering on a closed
// scope runs fn immediately.
func (s *Scope) Defer(name string, fn func() error) error {
	s.mu.Lock()
	if !s.closed {
		s.cleanups = append(s.cleanups, cleanup{name: name, fn: fn})
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	if err := fn(); err != nil {
		return fmt.Errorf("cleaning up %s: %w", name, err)
	}
	return nil
}

// TempDir creates a temporary directory and registers its removal.
func (s *Scope) TempDir(pattern string) (string, error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("creating temporary directory: %w", err)
	}
	if err := s.Defer(dir, func() error { return os.RemoveAll(dir) }); err != nil {
		return "", err
	}
	return dir, nil
}

// Close runs every registered cleanup. Later calls are no-ops.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pending := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("cleaning up %s: %w", pending[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// TrapSignals closes the scope and calls exit(InterruptedExitCode) when the
// process receives SIGINT or SIGTERM. The returned function stops trapping.
func (s *Scope) TrapSignals(exit func(code int)) (release func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigs:
			_ = s.Close()
			exit(InterruptedExitCode)
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
		})
	}
}
