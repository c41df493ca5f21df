package errors

import (
	"fmt"
	"strings"
	"sync"
)

// LeafError is a single failed leaf operation inside a bulk tree operation.
type LeafError struct {
	Op   string
	Path string
	Err  error
}

// Error returns "op path: cause".
func (l LeafError) Error() string {
	return fmt.Sprintf("%s %s: %v", l.Op, l.Path, l.Err)
}

// Unwrap returns the leaf cause.
func (l LeafError) Unwrap() error {
	return l.Err
}

// TreeError aggregates the leaf failures of one bulk operation (copy, move,
// removetree). It is safe for concurrent use by the worker pool that fills it.
//
// TreeError unwraps to every leaf failure, so errors.Is(err, fs.ErrPermission)
// reports true when any leaf failed with a permission error.
type TreeError struct {
	Op   string
	Path string
	// OpID correlates log lines of one bulk call.
	OpID string

	mu       sync.Mutex
	failures []LeafError
}

// NewTreeError returns an empty aggregate for op rooted at path.
func NewTreeError(op, path string) *TreeError {
	return &TreeError{Op: op, Path: path}
}

// Add records a leaf failure. A nil err is ignored.
func (t *TreeError) Add(op, path string, err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	t.failures = append(t.failures, LeafError{Op: op, Path: path, Err: err})
	t.mu.Unlock()
}

// Failures returns a copy of the recorded leaf failures in the order they were added.
func (t *TreeError) Failures() []LeafError {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LeafError, len(t.failures))
	copy(out, t.failures)
	return out
}

// Len returns the number of recorded failures.
func (t *TreeError) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.failures)
}

// Failed reports whether path has a recorded failure.
func (t *TreeError) Failed(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range t.failures {
		if f.Path == path {
			return true
		}
	}
	return false
}

// ErrOrNil returns t if any failure was recorded, otherwise nil.
func (t *TreeError) ErrOrNil() error {
	if t.Len() == 0 {
		return nil
	}
	return t
}

// Error names the first failure and counts the rest.
func (t *TreeError) Error() string {
	failures := t.Failures()
	if len(failures) == 0 {
		return fmt.Sprintf("%s %s: no failures", t.Op, t.Path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d leaf operation(s) failed: %s", t.Op, t.Path, len(failures), failures[0].Error())
	if len(failures) > 1 {
		fmt.Fprintf(&b, " (and %d more)", len(failures)-1)
	}
	return b.String()
}

// Unwrap exposes every leaf failure to errors.Is and errors.As.
func (t *TreeError) Unwrap() []error {
	failures := t.Failures()
	out := make([]error, len(failures))
	for i, f := range failures {
		out[i] = f
	}
	return out
}
