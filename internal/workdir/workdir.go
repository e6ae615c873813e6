// Package workdir changes the process working directory for a bounded scope.
//
// Scopes nest like a directory stack: each Push is paired with exactly one
// Pop, and Within guarantees the Pop on every exit path, including panics.
// Push and Pop are serialized because the working directory is process-wide.
// Relative paths given to Resolve are looked up inside the scope.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrAlreadyPopped is returned when a scope is popped twice.
var ErrAlreadyPopped = errors.New("working directory scope already popped")

var mu sync.Mutex

// Scope is an entered working directory that remembers where it came from.
type Scope struct {
	dir    string
	prev   string
	popped bool
}

// Push changes into dir and returns the scope that restores the previous directory.
func Push(dir string) (*Scope, error) {
	mu.Lock()
	defer mu.Unlock()

	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if err := os.Chdir(abs); err != nil {
		return nil, fmt.Errorf("failed to enter %s: %w", dir, err)
	}
	return &Scope{dir: abs, prev: prev}, nil
}

// Dir is the absolute directory the scope entered.
func (s *Scope) Dir() string {
	return s.dir
}

// Resolve returns the absolute path of rel, which must exist. A relative rel
// is taken from the scope's directory.
func (s *Scope) Resolve(rel string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if s.popped {
		return "", ErrAlreadyPopped
	}
	if _, err := os.Stat(rel); err != nil {
		return "", fmt.Errorf("%s not found in %s: %w", rel, s.dir, err)
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), nil
	}
	return filepath.Join(s.dir, rel), nil
}

// Pop returns to the directory that was current when the scope was pushed.
func (s *Scope) Pop() error {
	mu.Lock()
	defer mu.Unlock()

	if s.popped {
		return ErrAlreadyPopped
	}
	s.popped = true
	if err := os.Chdir(s.prev); err != nil {
		return fmt.Errorf("failed to return to %s: %w", s.prev, err)
	}
	return nil
}

// Within runs fn with dir as the working directory and always restores the
// previous one. A restore failure is reported only if fn succeeded.
func Within(dir string, fn func(*Scope) error) (err error) {
	scope, err := Push(dir)
	if err != nil {
		return err
	}
	defer func() {
		if popErr := scope.Pop(); popErr != nil && err == nil {
			err = popErr
		}
	}()
	return fn(scope)
}
