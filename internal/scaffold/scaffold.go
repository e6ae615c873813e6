// Package scaffold generates the configuration file and the local manifests
// a run applies: destination rules for the endpoint pickers, the HTTPRoute
// and simulated model server deployments.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/imamik/infermesh/internal/config"
)

// ErrExists is returned when a file would be overwritten without force.
var ErrExists = errors.New("file already exists")

// File is one generated file, relative to the project directory.
type File struct {
	Path string
	Data []byte
}

// Files renders every file for cfg. Remote manifest sources are skipped.
func Files(cfg *config.Config, configPath string) ([]File, error) {
	cfgData, err := config.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	files := []File{{Path: configPath, Data: cfgData}}

	inf := cfg.Inference
	if !config.IsRemote(inf.DestinationRule) {
		data, err := yamlDocuments(DestinationRules(inf.Pools, cfg.Smoke.Namespace))
		if err != nil {
			return nil, fmt.Errorf("failed to render destination rules: %w", err)
		}
		files = append(files, File{Path: inf.DestinationRule, Data: data})
	}
	if !config.IsRemote(inf.HTTPRoute) {
		data, err := yaml.Marshal(HTTPRoute(inf.Pools, cfg.Smoke.Gateway).Object)
		if err != nil {
			return nil, fmt.Errorf("failed to render httproute: %w", err)
		}
		files = append(files, File{Path: inf.HTTPRoute, Data: data})
	}
	for _, pool := range inf.Pools {
		if config.IsRemote(pool.Manifest) {
			continue
		}
		data, err := yaml.Marshal(SimDeployment(pool))
		if err != nil {
			return nil, fmt.Errorf("failed to render deployment for %s: %w", pool.Name, err)
		}
		files = append(files, File{Path: pool.Manifest, Data: data})
	}
	return files, nil
}

// Write renders the files and writes them under dir. Existing files are only
// replaced when force is set. It returns the written paths.
func Write(cfg *config.Config, dir, configPath string, force bool) ([]string, error) {
	files, err := Files(cfg, configPath)
	if err != nil {
		return nil, err
	}

	if !force {
		for _, f := range files {
			path := filepath.Join(dir, f.Path)
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("%w: %s", ErrExists, path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to check %s: %w", path, err)
			}
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
