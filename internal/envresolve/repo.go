package envresolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/infermesh/internal/runner"
	"github.com/imamik/infermesh/internal/util/prerequisites"
)

// ErrRepoLayout is returned when a resolved repository lacks expected files.
var ErrRepoLayout = errors.New("unexpected repository layout")

// Source records how a repository was found.
type Source string

const (
	SourceCurrent Source = "current"
	SourceChild   Source = "child"
	SourceSibling Source = "sibling"
	SourceClone   Source = "clone"
)

// Repo is a resolved mesh source tree.
type Repo struct {
	Path   string
	Source Source
}

// Verify checks that every repository-relative file in expected exists.
func (r Repo) Verify(expected []string) error {
	var missing []string
	for _, rel := range expected {
		if _, err := os.Stat(filepath.Join(r.Path, rel)); err != nil {
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is missing %s", ErrRepoLayout, r.Path, strings.Join(missing, ", "))
	}
	return nil
}

// LocateOptions configures Locate.
type LocateOptions struct {
	// Name is the directory name of the checkout.
	Name string

	CloneURL string

	// StartDir is where the search begins. Empty means the current directory.
	StartDir string

	// ExpectedFiles are verified after resolution.
	ExpectedFiles []string

	Runner   runner.Runner
	LookPath prerequisites.LookPath
	Log      logr.Logger
}

// Locate finds the mesh repository. It checks, in order, whether StartDir is
// the repository, then StartDir/<name>, then a sibling ../<name>, and clones
// into StartDir/<name> when none exists.
func Locate(ctx context.Context, opts LocateOptions) (Repo, error) {
	start := opts.StartDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Repo{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		start = wd
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return Repo{}, fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	repo, found := search(start, opts.Name)
	if !found {
		repo, err = clone(ctx, start, opts)
		if err != nil {
			return Repo{}, err
		}
	}
	opts.Log.Info("resolved mesh repository", "path", repo.Path, "source", string(repo.Source))

	if err := repo.Verify(opts.ExpectedFiles); err != nil {
		return Repo{}, err
	}
	return repo, nil
}

func search(start, name string) (Repo, bool) {
	if filepath.Base(start) == name {
		return Repo{Path: start, Source: SourceCurrent}, true
	}
	if child := filepath.Join(start, name); isDir(child) {
		return Repo{Path: child, Source: SourceChild}, true
	}
	if sibling := filepath.Join(filepath.Dir(start), name); isDir(sibling) {
		return Repo{Path: sibling, Source: SourceSibling}, true
	}
	return Repo{}, false
}

func clone(ctx context.Context, start string, opts LocateOptions) (Repo, error) {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if err := prerequisites.Require(lookPath, prerequisites.Git); err != nil {
		return Repo{}, fmt.Errorf("no local %s checkout found and cannot clone: %w", opts.Name, err)
	}
	if opts.CloneURL == "" {
		return Repo{}, fmt.Errorf("no local %s checkout found and no clone URL configured", opts.Name)
	}

	target := filepath.Join(start, opts.Name)
	opts.Log.Info("cloning mesh repository", "url", opts.CloneURL, "path", target)
	if err := opts.Runner.Run(ctx, runner.Cmd("git", "clone", opts.CloneURL, target)); err != nil {
		return Repo{}, fmt.Errorf("failed to clone %s: %w", opts.CloneURL, err)
	}
	return Repo{Path: target, Source: SourceClone}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
