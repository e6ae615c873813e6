package handlers

import (
	"context"
	"time"

	"github.com/imamik/infermesh/internal/deploy"
)

// SmokeOptions are the flags of the smoke command.
type SmokeOptions struct {
	CommonOptions

	GatewayWait time.Duration
}

// Smoke sends the completion request through the first cluster's gateway.
func Smoke(ctx context.Context, opts SmokeOptions) error {
	s, err := openSession(opts.CommonOptions, deploy.Options{GatewayWait: opts.GatewayWait})
	if err != nil {
		return err
	}
	return s.run(ctx, "infermesh smoke", s.deployer.Smoke)
}
