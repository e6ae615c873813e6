package handlers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/scaffold"
)

// InitOptions are the flags of the init command.
type InitOptions struct {
	// OutputPath is the configuration file. Manifests are written relative
	// to its directory.
	OutputPath string

	Force    bool
	Defaults bool
}

// Init writes a configuration with every default set, plus the local
// manifests it references.
func Init(ctx context.Context, opts InitOptions) error {
	cfg := config.Default()

	if !opts.Defaults && isInteractive() {
		clusters, err := promptClusters(ctx, cfg.Clusters)
		if err != nil {
			return err
		}
		cfg.Clusters = clusters
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dir, name := filepath.Split(opts.OutputPath)
	if dir == "" {
		dir = "."
	}
	written, err := scaffold.Write(cfg, dir, name, opts.Force)
	if err != nil {
		return err
	}

	for _, path := range written {
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	fmt.Fprintln(stdout, "\nRun 'infermesh doctor' to check your tools, then 'infermesh up'.")
	return nil
}
