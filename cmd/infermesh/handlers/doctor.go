package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/infermesh/internal/ui"
	"github.com/imamik/infermesh/internal/util/prerequisites"
)

// Doctor reports which of the tools a run needs are installed. It fails when
// a required tool is missing.
func Doctor(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	results := checkTools(ctx, prerequisites.ToolsFor(cfg))
	fmt.Fprint(stdout, ui.RenderTools(results))

	return results.Error()
}
