package deploy

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/infermesh/internal/config"
	"github.com/imamik/infermesh/internal/pipeline"
	"github.com/imamik/infermesh/internal/runner/runnertest"
)

type fakeAPIServers map[string]string

func (f fakeAPIServers) APIServer(_ context.Context, clusterName string, port int) (string, error) {
	ip, ok := f[clusterName]
	if !ok {
		return "", errors.New("no control plane for " + clusterName)
	}
	return "https://" + net.JoinHostPort(ip, strconv.Itoa(port)), nil
}

type fakeGateway struct {
	addr string
	err  error
}

func (f fakeGateway) WaitForAddress(context.Context, string, string, time.Duration) (string, error) {
	return f.addr, f.err
}

// fakeLookPath finds every tool at a path that does not exist.
func fakeLookPath(file string) (string, error) {
	return filepath.Join("/nonexistent/bin", file), nil
}

// harness wires a Deployer to recording fakes.
type harness struct {
	cfg      *config.Config
	rec      *runnertest.Recorder
	out      *bytes.Buffer
	repoDir  string
	startDir string
	gateway  fakeGateway

	mu       sync.Mutex
	switched []string
	requests int
}

func newHarness(clusters ...string) *harness {
	h := &harness{
		cfg: config.Default(),
		rec: runnertest.New(),
		out: &bytes.Buffer{},
	}
	if len(clusters) > 0 {
		h.cfg.Clusters = clusters
	}

	h.startDir = GinkgoT().TempDir()
	h.repoDir = filepath.Join(h.startDir, "istio")
	for _, rel := range h.cfg.Repo.ExpectedFiles {
		path := filepath.Join(h.repoDir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, nil, 0o755)).To(Succeed())
	}

	version := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1.28.3\n"))
	}))
	DeferCleanup(version.Close)
	h.cfg.VersionURL = version.URL

	inference := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.requests++
		h.mu.Unlock()
		_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}]}`))
	}))
	DeferCleanup(inference.Close)
	host, port, err := net.SplitHostPort(inference.Listener.Addr().String())
	Expect(err).NotTo(HaveOccurred())
	h.cfg.Smoke.Port, err = strconv.Atoi(port)
	Expect(err).NotTo(HaveOccurred())
	h.gateway = fakeGateway{addr: host}

	return h
}

func (h *harness) deployer(opts Options) *Deployer {
	opts.StartDir = h.startDir
	apiServers := fakeAPIServers{}
	for i, name := range h.cfg.Clusters {
		apiServers[name] = "172.18.0." + strconv.Itoa(i+2)
	}
	d, err := New(h.cfg, opts, Deps{
		Runner:     h.rec,
		LookPath:   fakeLookPath,
		APIServers: apiServers,
		Gateways: func(string) (AddressWaiter, error) {
			return h.gateway, nil
		},
		SwitchContext: func(kubeContext string) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.switched = append(h.switched, kubeContext)
			return nil
		},
		Out: h.out,
		Log: logr.Discard(),
	})
	Expect(err).NotTo(HaveOccurred())
	return d
}

func indexOf(lines []string, substr string) int {
	for i, l := range lines {
		if strings.Contains(l, substr) {
			return i
		}
	}
	return -1
}

var _ = Describe("Deployer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Up", func() {
		It("runs every phase in order", func() {
			h := newHarness()
			d := h.deployer(Options{})

			Expect(d.Up(ctx)).To(Succeed())

			lines := h.rec.Lines()
			bootstrap := indexOf(lines, "integ-suite-kind.sh")
			firstMesh := indexOf(lines, "install -y --context kind-cluster1")
			lastCluster1 := indexOf(lines, "httproute.yaml --context kind-cluster1")
			firstCluster2 := indexOf(lines, "install -y --context kind-cluster2")
			lastCluster2 := indexOf(lines, "httproute.yaml --context kind-cluster2")
			firstSecret := indexOf(lines, "create-remote-secret")

			Expect(bootstrap).To(Equal(0))
			Expect(firstMesh).To(Equal(1))
			Expect(lastCluster1).To(BeNumerically(">", firstMesh))
			Expect(firstCluster2).To(Equal(lastCluster1 + 1))
			Expect(lastCluster2).To(BeNumerically(">", firstCluster2))
			Expect(firstSecret).To(Equal(lastCluster2 + 1))
			Expect(lines).To(HaveLen(firstSecret + 2))

			Expect(h.switched).To(Equal([]string{"kind-cluster1"}))
			Expect(h.requests).To(Equal(1))
			Expect(h.out.String()).To(ContainSubstring("200 OK"))
		})

		It("installs the mesh with the fetched tag and the stripped cluster name", func() {
			h := newHarness("primary-1", "remote-1")
			d := h.deployer(Options{SkipBootstrap: true, SkipSmoke: true})

			Expect(d.Up(ctx)).To(Succeed())

			installs := h.rec.Matching("install -y --context kind-primary-1")
			Expect(installs).To(HaveLen(1))
			Expect(installs[0]).To(ContainSubstring("--set tag=1.28.3"))
			Expect(installs[0]).To(ContainSubstring("--set values.global.multiCluster.clusterName=primary-1"))
			Expect(installs[0]).To(ContainSubstring("--set hub=gcr.io/istio-testing"))
			Expect(installs[0]).To(ContainSubstring("--set values.pilot.env.ENABLE_GATEWAY_API_INFERENCE_EXTENSION=true"))

			for _, call := range h.rec.Calls() {
				if call.Command.Name == "go" {
					Expect(call.Command.Dir).To(Equal(h.repoDir))
				}
			}
		})

		It("prefers an explicit tag over the version source", func() {
			h := newHarness()
			h.cfg.VersionURL = "http://127.0.0.1:1/unreachable"
			d := h.deployer(Options{Tag: "1.27.1", SkipBootstrap: true, SkipSmoke: true})

			Expect(d.Up(ctx)).To(Succeed())
			Expect(h.rec.Matching("--set tag=1.27.1")).To(HaveLen(2))
		})

		It("links both directions, each secret applied to the opposite context", func() {
			h := newHarness()
			d := h.deployer(Options{SkipBootstrap: true, SkipSmoke: true})

			Expect(d.Up(ctx)).To(Succeed())

			secrets := h.rec.Matching("create-remote-secret")
			Expect(secrets).To(HaveLen(2))
			Expect(secrets[0]).To(ContainSubstring("--context kind-cluster2 --name cluster2 --server https://172.18.0.3:6443 | kubectl apply -f - --context kind-cluster1"))
			Expect(secrets[1]).To(ContainSubstring("--context kind-cluster1 --name cluster1 --server https://172.18.0.2:6443 | kubectl apply -f - --context kind-cluster2"))
		})

		It("deletes the legacy CRD idempotently on repeated runs", func() {
			h := newHarness()

			Expect(h.deployer(Options{SkipBootstrap: true, SkipSmoke: true}).Up(ctx)).To(Succeed())
			Expect(h.deployer(Options{SkipBootstrap: true, SkipSmoke: true}).Up(ctx)).To(Succeed())

			deletes := h.rec.Matching("kubectl delete crd inferencepools.inference.networking.x-k8s.io")
			Expect(deletes).To(HaveLen(4))
			for _, line := range deletes {
				Expect(line).To(ContainSubstring("--ignore-not-found"))
			}
		})

		It("stops before cluster 2 and the secrets when a cluster 1 chart fails", func() {
			h := newHarness()
			h.rec.FailOn("helm install vllm-llama3-8b-instruct", errors.New("failed to pull chart"))
			d := h.deployer(Options{})

			err := d.Up(ctx)

			Expect(err).To(HaveOccurred())
			Expect(FailedStep(err)).To(Equal("cluster1/inferencepool/vllm-llama3-8b-instruct"))
			Expect(h.rec.Matching("kind-cluster2")).To(BeEmpty())
			Expect(h.rec.Matching("create-remote-secret")).To(BeEmpty())
			Expect(h.requests).To(BeZero())

			statuses := map[string]pipeline.Status{}
			for _, r := range d.Results() {
				statuses[r.Name] = r.Status
			}
			Expect(statuses["cluster1/inferencepool/vllm-llama3-8b-instruct"]).To(Equal(pipeline.StatusFailed))
			Expect(statuses["cluster2/mesh"]).To(Equal(pipeline.StatusSkipped))
			Expect(statuses["link/cluster1<-cluster2"]).To(Equal(pipeline.StatusSkipped))
			Expect(statuses["smoke"]).To(Equal(pipeline.StatusSkipped))
		})

		It("aborts when the bootstrap fails", func() {
			h := newHarness()
			h.rec.FailOn("integ-suite-kind.sh", errors.New("kind create cluster failed"))

			err := h.deployer(Options{}).Up(ctx)

			Expect(FailedStep(err)).To(Equal("bootstrap"))
			Expect(h.rec.Lines()).To(HaveLen(1))
		})

		It("aborts when a required tool is missing", func() {
			h := newHarness()
			d := h.deployer(Options{})
			d.deps.LookPath = func(file string) (string, error) {
				if file == "kind" {
					return "", errors.New("not found")
				}
				return fakeLookPath(file)
			}

			err := d.Up(ctx)

			Expect(FailedStep(err)).To(Equal("preflight"))
			Expect(err.Error()).To(ContainSubstring("kind"))
			Expect(h.rec.Calls()).To(BeEmpty())
		})

		It("only looks tools up during preflight", func() {
			h := newHarness()
			dir := GinkgoT().TempDir()
			marker := filepath.Join(dir, "ran")
			tool := filepath.Join(dir, "tool")
			Expect(os.WriteFile(tool, []byte("#!/bin/sh\ntouch "+marker+"\n"), 0o755)).To(Succeed())
			d := h.deployer(Options{SkipBootstrap: true, SkipSmoke: true})
			var looked []string
			d.deps.LookPath = func(file string) (string, error) {
				looked = append(looked, file)
				return tool, nil
			}

			Expect(d.Up(ctx)).To(Succeed())

			Expect(looked).To(ContainElements("kind", "docker", "kubectl", "helm", "go"))
			_, err := os.Stat(marker)
			Expect(os.IsNotExist(err)).To(BeTrue(), "a tool was executed outside the runner")
		})

		It("skips the bootstrap when asked", func() {
			h := newHarness()

			Expect(h.deployer(Options{SkipBootstrap: true, SkipSmoke: true}).Up(ctx)).To(Succeed())
			Expect(h.rec.Matching("integ-suite-kind.sh")).To(BeEmpty())
		})

		It("does not send a request to an empty gateway address", func() {
			h := newHarness()
			h.gateway = fakeGateway{err: errors.New("gateway has no address")}

			err := h.deployer(Options{SkipBootstrap: true}).Up(ctx)

			Expect(FailedStep(err)).To(Equal("smoke"))
			Expect(h.requests).To(BeZero())
		})

		Context("with parallel clusters", func() {
			It("installs both clusters before linking", func() {
				h := newHarness()

				Expect(h.deployer(Options{ParallelClusters: true, SkipBootstrap: true, SkipSmoke: true}).Up(ctx)).To(Succeed())

				lines := h.rec.Lines()
				firstSecret := indexOf(lines, "create-remote-secret")
				Expect(firstSecret).To(BeNumerically(">", indexOf(lines, "httproute.yaml --context kind-cluster1")))
				Expect(firstSecret).To(BeNumerically(">", indexOf(lines, "httproute.yaml --context kind-cluster2")))
				Expect(h.rec.Matching("install -y")).To(HaveLen(2))
			})

			It("does not link after a cluster failure", func() {
				h := newHarness()
				h.rec.FailOn("--context kind-cluster1 --set tag", errors.New("install failed"))

				err := h.deployer(Options{ParallelClusters: true, SkipBootstrap: true, SkipSmoke: true}).Up(ctx)

				Expect(err).To(HaveOccurred())
				Expect(h.rec.Matching("create-remote-secret")).To(BeEmpty())
			})
		})
	})

	Describe("Link", func() {
		It("runs only the secret exchange", func() {
			h := newHarness()

			Expect(h.deployer(Options{}).Link(ctx)).To(Succeed())

			Expect(h.rec.Lines()).To(HaveLen(2))
			Expect(h.rec.Matching("create-remote-secret")).To(HaveLen(2))
		})
	})

	Describe("Smoke", func() {
		It("switches to the first cluster and prints the response", func() {
			h := newHarness()

			Expect(h.deployer(Options{}).Smoke(ctx)).To(Succeed())

			Expect(h.switched).To(Equal([]string{"kind-cluster1"}))
			Expect(h.out.String()).To(ContainSubstring(`{"choices":[{"text":"ok"}]}`))
			Expect(h.rec.Calls()).To(BeEmpty())
		})

		It("waits for the gateway port when a wait is set", func() {
			h := newHarness()

			Expect(h.deployer(Options{GatewayWait: time.Second}).Smoke(ctx)).To(Succeed())
			Expect(h.requests).To(Equal(1))
		})

		It("fails on an empty address without sending a request", func() {
			h := newHarness()
			h.gateway = fakeGateway{addr: ""}

			err := h.deployer(Options{}).Smoke(ctx)

			Expect(err).To(HaveOccurred())
			Expect(h.requests).To(BeZero())
		})
	})
})
