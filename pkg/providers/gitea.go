package providers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"code.gitea.io/sdk/gitea"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GiteaContent reads the content graph from a file in a Gitea repository.
type GiteaContent struct {
	snapshot
	BaseUrl string
	Owner   string
	Repo    string
	Ref     string
	Path    string

	gitea *gitea.Client
	ttl   time.Duration

	mu       sync.Mutex
	loadedAt time.Time
	memory   *Memory
	err      error
	refresh  chan struct{} // 正在进行的刷新
}

func NewGiteaContent(client *http.Client, url, token, owner, repo, ref, path string, ttl time.Duration) (*GiteaContent, error) {
	if owner == "" || repo == "" {
		return nil, errors.New("gitea owner and repo are required")
	}
	if path == "" {
		path = "content.yaml"
	}
	options := []gitea.ClientOption{gitea.SetGiteaVersion("")}
	if token != "" {
		options = append(options, gitea.SetToken(token))
	}
	if client != nil {
		options = append(options, gitea.SetHTTPClient(client))
	}
	giteaClient, err := gitea.NewClient(url, options...)
	if err != nil {
		return nil, err
	}
	g := &GiteaContent{
		BaseUrl: url,
		Owner:   owner,
		Repo:    repo,
		Ref:     ref,
		Path:    path,
		gitea:   giteaClient,
		ttl:     ttl,
	}
	g.snapshot = snapshot{current: g.load}
	return g, nil
}

func (g *GiteaContent) Close() error {
	return nil
}

// load returns the cached graph, refreshing it once the ttl expired. A slow
// refresh runs in the background so callers only wait until their context ends.
func (g *GiteaContent) load(ctx context.Context) (*Memory, error) {
	g.mu.Lock()
	if g.memory != nil && time.Since(g.loadedAt) < g.ttl {
		defer g.mu.Unlock()
		return g.memory, nil
	}
	if g.refresh == nil {
		g.refresh = make(chan struct{})
		go g.fetch(g.refresh)
	}
	refresh := g.refresh
	g.mu.Unlock()

	select {
	case <-refresh:
	case <-ctx.Done():
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.memory != nil {
			return g.memory, nil
		}
		return nil, errors.Wrapf(ctx.Err(), "fetch %s from %s/%s", g.Path, g.Owner, g.Repo)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.memory == nil {
		return nil, g.err
	}
	return g.memory, nil
}

func (g *GiteaContent) fetch(done chan struct{}) {
	memory, err := g.download()
	g.mu.Lock()
	defer g.mu.Unlock()
	defer close(done)
	g.refresh = nil
	g.err = err
	if err == nil {
		g.memory = memory
		g.loadedAt = time.Now()
		return
	}
	if g.memory != nil {
		// 上游不可用时继续使用上次的内容
		zap.L().Warn("failed to refresh content graph", zap.String("repo", g.Owner+"/"+g.Repo), zap.Error(err))
	}
}

func (g *GiteaContent) download() (*Memory, error) {
	data, resp, err := g.gitea.GetFile(g.Owner, g.Repo, g.Ref, g.Path)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s from %s/%s", g.Path, g.Owner, g.Repo)
	}
	graph, err := ParseContentGraph(data)
	if err != nil {
		return nil, err
	}
	return NewMemory(graph), nil
}
