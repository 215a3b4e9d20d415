package cleanup

import (
	"errors"
	"fmt"
	"sync"
)

// Stack collects release hooks and runs them in LIFO order.
// The zero value is ready to use.
type Stack struct {
	mu    sync.Mutex
	hooks []func() error
}

// Push adds a hook. Nil hooks are ignored.
func (s *Stack) Push(hook func() error) {
	if hook == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, hook)
	s.mu.Unlock()
}

// Run executes and clears all hooks, newest first. Every hook runs even
// when an earlier one fails.
func (s *Stack) Run() error {
	s.mu.Lock()
	local := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	var errs []error
	for i := len(local) - 1; i >= 0; i-- {
		if err := local[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("cleanup failed: %w", errors.Join(errs...))
}

var process Stack

// Register adds a process-wide hook executed by RunAll.
func Register(hook func() error) { process.Push(hook) }

// RunAll executes the process-wide hooks.
func RunAll() error { return process.Run() }
