package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.d7z.net/error-pages/pkg/core"
)

func pageID(i int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", i)
}

func readPage(t *testing.T, f *fixture, site, id string) string {
	data, err := os.ReadFile(filepath.Join(f.output, site, id+".html"))
	require.NoError(t, err)
	return string(data)
}

func TestGenerateIsolatesFailures(t *testing.T) {
	f := newFixture(t, false)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	for i := 1; i <= 5; i++ {
		body := fmt.Sprintf("page %d", i)
		if i == 3 {
			body = ""
		}
		f.addErrorPage("main", pageID(i), fmt.Sprintf("/errors/%d", i), body, 400+i)
	}
	report, err := f.pipeline(t, true, Options{}).Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Success())
	assert.Equal(t, int64(4), report.Written)
	assert.Equal(t, int64(1), report.Failed)

	for i := 1; i <= 5; i++ {
		if i == 3 {
			_, err = os.Stat(filepath.Join(f.output, "main", pageID(i)+".html"))
			assert.ErrorIs(t, err, os.ErrNotExist)
			continue
		}
		assert.Equal(t, fmt.Sprintf("page %d", i), readPage(t, f, "main", pageID(i)))
	}
	assert.InDelta(t, 4, testutil.ToFloat64(f.metrics.items.WithLabelValues("main", ResultWritten)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.items.WithLabelValues("main", ResultFailed)), 0)
}

func TestGenerateIdempotent(t *testing.T) {
	f := newFixture(t, false)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	f.addErrorPage("main", pageID(1), "/404", "not found", 404)
	pipeline := f.pipeline(t, true, Options{})

	for range 2 {
		report, err := pipeline.Generate(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Success())
		assert.Equal(t, int64(1), report.Written)
		assert.Equal(t, "not found", readPage(t, f, "main", pageID(1)))
	}
	entries, err := os.ReadDir(filepath.Join(f.output, "main"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, pageID(1)+".html", entries[0].Name())

	f.origin.AddPage("/404", "changed")
	_, err = pipeline.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "changed", readPage(t, f, "main", pageID(1)))
}

func TestGenerateVisibility(t *testing.T) {
	f := newFixture(t, false)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	hidden := f.addErrorPage("main", pageID(1), "/hidden", "hidden", 404)
	hidden.Hidden = true
	f.content.AddNode("main", &core.Node{ID: "folder", Type: "Page", Parent: "root-main", Path: "/folder", Hidden: true})
	nested := f.addErrorPage("main", pageID(2), "/folder/404", "nested", 410)
	nested.Parent = "folder"

	report, err := f.pipeline(t, true, Options{RecursiveVisibility: true}).Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, int64(0), report.Written)
	assert.Equal(t, int64(2), report.Skipped)

	report, err = f.pipeline(t, true, Options{}).Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, int64(1), report.Written)
	assert.Equal(t, "nested", readPage(t, f, "main", pageID(2)))
}

func TestGenerateSkipsSites(t *testing.T) {
	f := newFixture(t, false)
	f.addSite(core.Site{Name: "offline", PrimaryDomain: f.origin.URL})
	f.addErrorPage("offline", pageID(1), "/offline", "offline", 404)
	f.addSite(core.Site{Name: "nodomain", Online: true})
	f.addErrorPage("nodomain", pageID(2), "/nodomain", "nodomain", 404)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	f.addErrorPage("main", pageID(3), "/main", "main", 404)

	report, err := f.pipeline(t, true, Options{}).Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, int64(1), report.Written)
	assert.Equal(t, int64(1), report.Skipped)
	assert.Equal(t, "main", readPage(t, f, "main", pageID(3)))
	_, err = os.Stat(filepath.Join(f.output, "nodomain"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerateSiteFilter(t *testing.T) {
	f := newFixture(t, false)
	for i, name := range []string{"shop-de", "shop-en", "blog"} {
		f.addSite(core.Site{Name: name, Online: true, PrimaryDomain: f.origin.URL})
		f.addErrorPage(name, pageID(i), "/"+name, name, 404)
	}
	report, err := f.pipeline(t, true, Options{Sites: []string{"shop-*"}}).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Written)
	_, err = os.Stat(filepath.Join(f.output, "blog"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewPipeline(f.content, nil, nil, nil, nil, Options{Sites: []string{"[shop"}})
	assert.Error(t, err)
}

func TestGenerateTLSVerification(t *testing.T) {
	f := newFixture(t, true)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	f.addErrorPage("main", pageID(1), "/404", "secure", 404)

	report, err := f.pipeline(t, true, Options{}).Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Success())
	assert.Equal(t, int64(1), report.Failed)

	report, err = f.pipeline(t, false, Options{}).Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, "secure", readPage(t, f, "main", pageID(1)))
}

func TestGenerateVerbose(t *testing.T) {
	f := newFixture(t, false)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	f.addErrorPage("main", pageID(1), "/404", "ok", 404)
	f.addErrorPage("main", pageID(2), "/500", "", 500)
	out := &bytes.Buffer{}

	report, err := f.pipeline(t, true, Options{Concurrency: 2, Verbose: out}).Generate(context.Background())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, report.RunID)
	}
	assert.Contains(t, out.String(), "written")
	assert.Contains(t, out.String(), "failed")
}

func TestGenerateCanceled(t *testing.T) {
	f := newFixture(t, false)
	f.addSite(core.Site{Name: "main", Online: true, PrimaryDomain: f.origin.URL})
	f.addErrorPage("main", pageID(1), "/404", "ok", 404)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.pipeline(t, true, Options{}).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, report.Success())
}
