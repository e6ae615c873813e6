// Package handlers implements the business logic for CLI commands.
//
// Handlers are called by the command definitions in the commands package and
// can be tested without the CLI framework. Collaborators are package variables
// so tests can replace them.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/deploy"
	"github.com/imamik/infermesh/internal/logging"
	"github.com/imamik/infermesh/internal/metrics"
	"github.com/imamik/infermesh/internal/pipeline"
	"github.com/imamik/infermesh/internal/ui"
	"github.com/imamik/infermesh/internal/util/prerequisites"
)

// CommonOptions are shared by every workflow command.
type CommonOptions struct {
	ConfigPath  string
	MetricsFile string
	Verbosity   int
}

// Deployer is the part of deploy.Deployer the handlers use.
type Deployer interface {
	Up(ctx context.Context) error
	Link(ctx context.Context) error
	Smoke(ctx context.Context) error
	Results() []pipeline.Result
	PrintPlan(w io.Writer)
	Close() error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads and validates the configuration.
	loadConfig = config.Load

	// newDeployer creates the workflow runner.
	newDeployer = func(cfg *config.Config, opts deploy.Options, deps deploy.Deps) (Deployer, error) {
		return deploy.New(cfg, opts, deps)
	}

	// isInteractive reports whether prompts can be shown.
	isInteractive = ui.IsInteractive

	// confirm asks a yes/no question.
	confirm = ui.Confirm

	// promptClusters asks for the cluster names.
	promptClusters = ui.PromptClusters

	// checkTools looks up the required tools.
	checkTools = prerequisites.Check

	// stdout receives plans, tool output and summaries.
	stdout io.Writer = os.Stdout

	// stderr receives logs.
	stderr io.Writer = os.Stderr
)

// session is one workflow command in progress.
type session struct {
	deployer Deployer
	recorder *metrics.Recorder
	opts     CommonOptions
}

func openSession(common CommonOptions, opts deploy.Options) (*session, error) {
	cfg, err := loadConfig(common.ConfigPath)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	d, err := newDeployer(cfg, opts, deploy.Deps{
		Observer: recorder,
		Out:      stdout,
		Log:      logging.New(stderr, common.Verbosity),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up run: %w", err)
	}
	return &session{deployer: d, recorder: recorder, opts: common}, nil
}

// run executes phase, prints the step summary and writes the metrics file.
// Both happen whether or not the phase succeeded.
func (s *session) run(ctx context.Context, title string, phase func(context.Context) error) error {
	runErr := phase(ctx)

	fmt.Fprint(stdout, ui.RenderSummary(title, s.deployer.Results()))

	var metricsErr error
	if s.opts.MetricsFile != "" {
		metricsErr = s.recorder.WriteTextfile(s.opts.MetricsFile)
	}
	closeErr := s.deployer.Close()

	return errors.Join(runErr, metricsErr, closeErr)
}
