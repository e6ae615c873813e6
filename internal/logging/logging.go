// Package logging builds the structured logger threaded through every step.
package logging

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New returns a logr.Logger that writes key/value lines to w through the
// standard log package. Messages logged with V(n) are shown when n <= verbosity.
func New(w io.Writer, verbosity int) logr.Logger {
	std := log.New(w, "", log.LstdFlags)

	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			std.Printf("%s: %s", prefix, args)
			return
		}
		std.Print(args)
	}, funcr.Options{
		Verbosity: verbosity,
	})
}

// Discard returns a logger that drops everything. Used by tests and library callers.
func Discard() logr.Logger {
	return logr.Discard()
}
