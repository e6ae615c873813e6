package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/infermesh/internal/deploy"
)

// UpOptions are the flags of the up command.
type UpOptions struct {
	CommonOptions

	Tag              string
	ParallelClusters bool
	SkipBootstrap    bool
	SkipSmoke        bool
	Yes              bool
	GatewayWait      time.Duration
}

// Up runs the whole workflow: resolve, bootstrap, install both clusters,
// link them and send the smoke request.
//
// The plan is printed first. On a terminal the run only starts after the
// operator confirms it, unless opts.Yes is set.
func Up(ctx context.Context, opts UpOptions) error {
	s, err := openSession(opts.CommonOptions, deploy.Options{
		Tag:              opts.Tag,
		ParallelClusters: opts.ParallelClusters,
		SkipBootstrap:    opts.SkipBootstrap,
		SkipSmoke:        opts.SkipSmoke,
		GatewayWait:      opts.GatewayWait,
	})
	if err != nil {
		return err
	}

	s.deployer.PrintPlan(stdout)

	if !opts.Yes && isInteractive() {
		ok, err := confirm(ctx, "Start the deployment?",
			"Creates kind clusters and installs the mesh and the inference extension into them.")
		if err != nil {
			_ = s.deployer.Close()
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "Aborted.")
			return s.deployer.Close()
		}
	}

	return s.run(ctx, "infermesh up", s.deployer.Up)
}
