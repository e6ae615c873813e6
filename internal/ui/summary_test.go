package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/infermesh/internal/pipeline"
)

func TestRenderSummary(t *testing.T) {
	results := []pipeline.Result{
		{Name: "resolve", Status: pipeline.StatusSucceeded, Duration: 1500 * time.Millisecond},
		{Name: "cluster1/inferencepool/vllm-llama3-8b-instruct", Status: pipeline.StatusFailed, Duration: 2 * time.Second, Err: errors.New("helm install failed\nstderr: chart not found")},
		{Name: "link/cluster1<-cluster2", Status: pipeline.StatusSkipped},
	}

	out := RenderSummary("infermesh up", results)

	assert.Contains(t, out, "infermesh up")
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "[!!]")
	assert.Contains(t, out, "[--]")
	assert.Contains(t, out, "helm install failed")
	assert.NotContains(t, out, "chart not found")
	assert.Contains(t, out, "1 succeeded, 1 failed, 1 skipped in 3.5s")
}

func TestRenderSummary_Empty(t *testing.T) {
	out := RenderSummary("infermesh link", nil)

	assert.Contains(t, out, "0 succeeded, 0 failed, 0 skipped")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1m2.3s", formatDuration(62*time.Second+340*time.Millisecond))
}
