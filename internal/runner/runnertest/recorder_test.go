package runnertest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infermesh/internal/runner"
)

func TestRecorder_RecordsInOrder(t *testing.T) {
	rec := New()
	ctx := context.Background()

	require.NoError(t, rec.Run(ctx, runner.Cmd("kubectl", "apply", "-f", "a.yaml")))
	require.NoError(t, rec.Pipe(ctx, runner.Cmd("istioctl", "create-remote-secret"), runner.Cmd("kubectl", "apply", "-f", "-")))

	assert.Equal(t, []string{
		"kubectl apply -f a.yaml",
		"istioctl create-remote-secret | kubectl apply -f -",
	}, rec.Lines())
	assert.Equal(t, 1, rec.Index("create-remote-secret"))
	assert.Equal(t, -1, rec.Index("helm"))
	assert.Len(t, rec.Matching("kubectl"), 2)
}

func TestRecorder_RespondTo(t *testing.T) {
	rec := New().RespondTo("git rev-parse", "abc123\n")

	out, err := rec.Output(context.Background(), runner.Cmd("git", "rev-parse", "HEAD"))

	require.NoError(t, err)
	assert.Equal(t, "abc123\n", out)
}

func TestRecorder_FailOn(t *testing.T) {
	boom := errors.New("boom")
	rec := New().FailOn("helm install", boom)

	err := rec.Run(context.Background(), runner.Cmd("helm", "install", "x"))

	require.ErrorIs(t, err, boom)
	var exitErr *runner.ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Len(t, rec.Calls(), 1, "failing call is still recorded")
}

func TestRecorder_Stdin(t *testing.T) {
	rec := New()
	cmd := runner.Cmd("kubectl", "apply", "-f", "-")
	cmd.Stdin = strings.NewReader("kind: Secret")

	require.NoError(t, rec.Run(context.Background(), cmd))

	assert.Equal(t, "kind: Secret", rec.Calls()[0].Stdin)
}

func TestRecorder_CancelledContext(t *testing.T) {
	rec := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rec.Run(ctx, runner.Cmd("true"))

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Calls())
}
