package export

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.d7z.net/error-pages/pkg/core"
	"gopkg.d7z.net/error-pages/pkg/destination"
	"gopkg.d7z.net/error-pages/pkg/providers"
)

// origin serves the live rendering of error page nodes.
type origin struct {
	*httptest.Server
	mu    sync.Mutex
	pages map[string]string
}

func newOrigin(tls bool) *origin {
	o := &origin{pages: make(map[string]string)}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		body, ok := o.pages[r.URL.Path]
		o.mu.Unlock()
		if !ok {
			http.Error(w, "broken", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	if tls {
		o.Server = httptest.NewTLSServer(handler)
	} else {
		o.Server = httptest.NewServer(handler)
	}
	return o
}

func (o *origin) AddPage(path, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages[path] = body
}

type fixture struct {
	origin   *origin
	content  *providers.Memory
	output   string
	registry *prometheus.Registry
	metrics  *Metrics
}

func newFixture(t *testing.T, tls bool) *fixture {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	o := newOrigin(tls)
	t.Cleanup(o.Close)
	registry := prometheus.NewRegistry()
	return &fixture{
		origin:   o,
		content:  providers.NewMemory(nil),
		output:   t.TempDir(),
		registry: registry,
		metrics:  NewMetrics(registry),
	}
}

// addErrorPage registers an error page node and its live rendering.
func (f *fixture) addErrorPage(site, id, path, body string, codes ...any) *core.Node {
	node := &core.Node{
		ID:         id,
		Type:       core.DefaultMarkerType,
		Parent:     "root-" + site,
		Path:       path,
		Properties: map[string]any{core.DefaultStatusProperty: codes},
	}
	f.content.AddNode(site, node)
	if body != "" {
		f.origin.AddPage(path, body)
	}
	return node
}

func (f *fixture) addSite(site core.Site) {
	f.content.AddSite(site, &core.Node{ID: "root-" + site.Name, Type: "Page", Path: "/"})
}

func (f *fixture) pipeline(t *testing.T, production bool, options Options) *Pipeline {
	evaluator, err := destination.NewJSEvaluator(0)
	require.NoError(t, err)
	repository := core.NewRepository(
		core.NewNodeSource(f.content, "", "", filepath.ToSlash(f.output)+"/${site}/${node}.html"),
		nil,
	)
	fetcher := NewFetcher(production, DefaultTimeout, 0)
	pipeline, err := NewPipeline(f.content, repository, destination.NewResolver(evaluator), fetcher, f.metrics, options)
	require.NoError(t, err)
	return pipeline
}
