package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"gopkg.d7z.net/error-pages/pkg/core"
	"gopkg.d7z.net/error-pages/pkg/destination"
	"gopkg.d7z.net/error-pages/pkg/providers"
	"gopkg.d7z.net/error-pages/pkg/resolver"
)

// application holds the collaborators shared by all commands.
type application struct {
	config     *Config
	content    core.ContentSource
	nodes      *core.NodeSource
	repository *core.Repository
	resolver   *destination.Resolver
}

func newApplication(config *Config) (*application, error) {
	content, err := providers.NewContentFromURL(&http.Client{Timeout: config.Content.Timeout}, config.Content.Source, config.Content.TTL)
	if err != nil {
		return nil, errors.Wrap(err, "open content source")
	}
	limited := providers.NewProviderLimited(content, config.Content.Concurrency)
	evaluator, err := destination.NewEvaluator(config.Engine, 0)
	if err != nil {
		_ = limited.Close()
		return nil, err
	}
	nodes := core.NewNodeSource(limited, config.Content.MarkerType, config.Content.StatusProperty, config.Destination)
	return &application{
		config:     config,
		content:    limited,
		nodes:      nodes,
		repository: core.NewRepository(nodes, core.NewStaticSource(config.Pages)),
		resolver:   destination.NewResolver(evaluator),
	}, nil
}

func (a *application) Close() error {
	return a.content.Close()
}

func (a *application) runtime() *resolver.RuntimeResolver {
	return resolver.NewRuntimeResolver(a.content, a.repository, a.resolver, a.config.Resolver.Timeout)
}

func (a *application) site(ctx context.Context, name string) (*core.Site, error) {
	sites, err := a.content.Sites(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sites {
		if sites[i].Name == name {
			return &sites[i], nil
		}
	}
	return nil, errors.Errorf("unknown site %s", name)
}

// preview builds the record of a single error page node as discovery would.
func (a *application) preview(ctx context.Context, siteName, id string) (*core.Record, string, error) {
	site, err := a.site(ctx, siteName)
	if err != nil {
		return nil, "", err
	}
	axes, err := a.content.Axes(ctx)
	if err != nil {
		return nil, "", err
	}
	var node *core.Node
	for _, point := range axes.Enumerate() {
		if node, err = a.content.Node(ctx, site, id, point); err == nil {
			break
		}
	}
	if node == nil {
		return nil, "", errors.Wrapf(core.ErrNodeUnresolvable, "%s in site %s", id, site.Name)
	}
	record, err := a.nodes.Record(ctx, site, axes, node)
	if err != nil {
		return nil, "", err
	}
	target, err := a.resolver.Destination(ctx, record, site.Name)
	if err != nil {
		return record, "", err
	}
	return record, target, nil
}
