package link

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/kubectl"
	"github.com/imamik/infermesh/internal/mesh"
	"github.com/imamik/infermesh/internal/pipeline"
	"github.com/imamik/infermesh/internal/runner/runnertest"
)

type fakeResolver map[string]string

func (f fakeResolver) APIServer(_ context.Context, clusterName string, port int) (string, error) {
	ip, ok := f[clusterName]
	if !ok {
		return "", errors.New("no control plane")
	}
	return "https://" + ip + ":6443", nil
}

var clusters = []config.Cluster{config.NewCluster("cluster1"), config.NewCluster("cluster2")}

func newLinker(rec *runnertest.Recorder, resolver APIServerResolver) *Linker {
	cli := mesh.New([]string{"istioctl"}, "/src/istio", rec)
	return New(resolver, cli, kubectl.New(rec), config.DefaultAPIServerPort, logr.Discard())
}

func resolver() fakeResolver {
	return fakeResolver{"cluster1": "172.18.0.2", "cluster2": "172.18.0.3"}
}

func TestLinkAll_BothDirections(t *testing.T) {
	rec := runnertest.New()

	require.NoError(t, newLinker(rec, resolver()).LinkAll(context.Background(), clusters))

	assert.Equal(t, []string{
		"istioctl create-remote-secret --context kind-cluster2 --name cluster2 --server https://172.18.0.3:6443" +
			" | kubectl apply -f - --context kind-cluster1",
		"istioctl create-remote-secret --context kind-cluster1 --name cluster1 --server https://172.18.0.2:6443" +
			" | kubectl apply -f - --context kind-cluster2",
	}, rec.Lines())
}

func TestLinkAll_SecretAppliedToOppositeContext(t *testing.T) {
	rec := runnertest.New()

	require.NoError(t, newLinker(rec, resolver()).LinkAll(context.Background(), clusters))

	calls := rec.Calls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		require.NotNil(t, call.PipeTo)
		generatedFrom := argAfter(call.Command.Args, "--context")
		appliedTo := argAfter(call.PipeTo.Args, "--context")
		assert.NotEqual(t, generatedFrom, appliedTo)
		assert.Equal(t, "/src/istio", call.Command.Dir)
	}
	assert.NotEqual(t, argAfter(calls[0].Command.Args, "--context"), argAfter(calls[1].Command.Args, "--context"))
}

func TestLink_ResolveError(t *testing.T) {
	rec := runnertest.New()

	err := newLinker(rec, fakeResolver{}).Link(context.Background(), clusters[0], clusters[1])

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve API server of cluster2")
	assert.Empty(t, rec.Calls())
}

func TestLinkAll_StopsOnFirstFailure(t *testing.T) {
	rec := runnertest.New().FailOn("--name cluster2", errors.New("forbidden"))

	err := newLinker(rec, resolver()).LinkAll(context.Background(), clusters)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to link cluster1 to cluster2")
	assert.Len(t, rec.Calls(), 1)
}

func TestSteps(t *testing.T) {
	rec := runnertest.New()
	steps := newLinker(rec, resolver()).Steps(clusters)

	require.Len(t, steps, 2)
	assert.Equal(t, "link/cluster1<-cluster2", steps[0].Name)
	assert.Equal(t, "link/cluster2<-cluster1", steps[1].Name)

	require.NoError(t, pipeline.New(logr.Discard(), nil).Run(context.Background(), steps...))
	assert.Len(t, rec.Calls(), 2)
}

func TestPairs(t *testing.T) {
	pairs := Pairs(clusters)

	require.Len(t, pairs, 2)
	assert.Equal(t, [2]config.Cluster{clusters[0], clusters[1]}, pairs[0])
	assert.Equal(t, [2]config.Cluster{clusters[1], clusters[0]}, pairs[1])
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
