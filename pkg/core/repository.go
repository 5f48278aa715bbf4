package core

import (
	"context"

	"github.com/pkg/errors"
)

// Repository merges the node derived and the static configuration.
type Repository struct {
	nodes  Source
	static Source
}

func NewRepository(nodes, static Source) *Repository {
	return &Repository{nodes: nodes, static: static}
}

// Configuration is rebuilt on every call. Static records are appended after
// node derived ones, so path bound node records win on position alone.
func (r *Repository) Configuration(ctx context.Context) (SiteConfigurations, error) {
	dynamic, err := r.load(ctx, r.nodes)
	if err != nil {
		return nil, errors.Wrap(err, "node based configuration")
	}
	static, err := r.load(ctx, r.static)
	if err != nil {
		return nil, errors.Wrap(err, "settings based configuration")
	}
	result := make(SiteConfigurations)
	for _, set := range []SiteConfigurations{dynamic, static} {
		for site := range set {
			if _, ok := result[site]; ok {
				continue
			}
			records := make([]Record, 0, len(dynamic[site])+len(static[site]))
			records = append(records, dynamic[site]...)
			records = append(records, static[site]...)
			records = Dedupe(records)
			if len(records) == 0 {
				continue
			}
			result[site] = records
		}
	}
	return result, nil
}

// ForSite returns the ordered records of one site.
func (r *Repository) ForSite(ctx context.Context, site string) ([]Record, error) {
	configuration, err := r.Configuration(ctx)
	if err != nil {
		return nil, err
	}
	return configuration[site], nil
}

func (r *Repository) load(ctx context.Context, source Source) (SiteConfigurations, error) {
	if source == nil {
		return SiteConfigurations{}, nil
	}
	return source.Configuration(ctx)
}
