package providers

import (
	"context"

	"gopkg.d7z.net/error-pages/pkg/core"
)

// snapshot serves every call from the latest loaded content graph.
type snapshot struct {
	current func(ctx context.Context) (*Memory, error)
}

func (s snapshot) Axes(ctx context.Context) (core.Axes, error) {
	m, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.Axes(ctx)
}

func (s snapshot) Sites(ctx context.Context) ([]core.Site, error) {
	m, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.Sites(ctx)
}

func (s snapshot) SiteByHost(ctx context.Context, host string) (*core.Site, error) {
	m, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.SiteByHost(ctx, host)
}

func (s snapshot) ResolveDimensions(ctx context.Context, site *core.Site, requestPath string) (core.DimensionPoint, error) {
	m, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.ResolveDimensions(ctx, site, requestPath)
}

func (s snapshot) FindNodes(ctx context.Context, site *core.Site, point core.DimensionPoint, nodeType string) ([]*core.Node, error) {
	m, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.FindNodes(ctx, site, point, nodeType)
}

func (s snapshot) Node(ctx context.Context, site *core.Site, id string, point core.DimensionPoint) (*core.Node, error) {
	m, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return m.Node(ctx, site, id, point)
}

func (s snapshot) NodeURL(ctx context.Context, site *core.Site, node *core.Node, baseURL string) (string, error) {
	m, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	return m.NodeURL(ctx, site, node, baseURL)
}
