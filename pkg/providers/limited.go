package providers

import (
	"context"

	"gopkg.d7z.net/error-pages/pkg/core"
)

// ProviderLimited bounds the number of concurrent calls into a content source.
type ProviderLimited struct {
	parent     core.ContentSource
	backendSem chan struct{}
}

func NewProviderLimited(parent core.ContentSource, backendConcurrent uint64) *ProviderLimited {
	if backendConcurrent == 0 {
		backendConcurrent = 16 // 默认限制 16 个并发请求
	}
	return &ProviderLimited{
		parent:     parent,
		backendSem: make(chan struct{}, backendConcurrent),
	}
}

func (p *ProviderLimited) acquire(ctx context.Context) (func(), error) {
	select {
	case p.backendSem <- struct{}{}:
		return func() { <-p.backendSem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ProviderLimited) Close() error {
	return p.parent.Close()
}

func (p *ProviderLimited) Axes(ctx context.Context) (core.Axes, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.parent.Axes(ctx)
}

func (p *ProviderLimited) Sites(ctx context.Context) ([]core.Site, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.parent.Sites(ctx)
}

func (p *ProviderLimited) SiteByHost(ctx context.Context, host string) (*core.Site, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.parent.SiteByHost(ctx, host)
}

func (p *ProviderLimited) ResolveDimensions(ctx context.Context, site *core.Site, requestPath string) (core.DimensionPoint, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.parent.ResolveDimensions(ctx, site, requestPath)
}

func (p *ProviderLimited) FindNodes(ctx context.Context, site *core.Site, point core.DimensionPoint, nodeType string) ([]*core.Node, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.parent.FindNodes(ctx, site, point, nodeType)
}

func (p *ProviderLimited) Node(ctx context.Context, site *core.Site, id string, point core.DimensionPoint) (*core.Node, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.parent.Node(ctx, site, id, point)
}

func (p *ProviderLimited) NodeURL(ctx context.Context, site *core.Site, node *core.Node, baseURL string) (string, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return p.parent.NodeURL(ctx, site, node, baseURL)
}
