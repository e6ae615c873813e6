// Package pipeline runs named orchestration steps in order with fail-fast semantics.
//
// A step either succeeds or stops the run: no later step starts after a
// failure, and every step that did not run is reported as skipped. Steps can
// be grouped with Sequence, or with Parallel when the caller explicitly opts
// into running independent groups concurrently.
//
// Example:
//
//	p := pipeline.New(log, metrics)
//	err := p.Run(ctx,
//	    pipeline.Step{Name: "resolve", Run: resolve},
//	    pipeline.Sequence("cluster1", meshInstall, extensionInstall),
//	)
package pipeline
