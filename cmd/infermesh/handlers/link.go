package handlers

import (
	"context"

	"github.com/imamik/infermesh/internal/deploy"
)

// Link exchanges remote secrets between the clusters of an existing deployment.
func Link(ctx context.Context, opts CommonOptions) error {
	s, err := openSession(opts, deploy.Options{})
	if err != nil {
		return err
	}
	return s.run(ctx, "infermesh link", s.deployer.Link)
}
