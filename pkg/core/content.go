package core

import (
	"context"
	"io"
	"strings"
)

type Site struct {
	Name          string   `yaml:"name" json:"name"`
	Online        bool     `yaml:"online" json:"online"`
	PrimaryDomain string   `yaml:"primary_domain,omitempty" json:"primary_domain,omitempty"`
	Domains       []string `yaml:"domains,omitempty" json:"domains,omitempty"`
}

// BaseURL returns the primary domain as an absolute URL, or "" when unset.
func (s *Site) BaseURL() string {
	domain := strings.TrimSuffix(s.PrimaryDomain, "/")
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return domain
}

type Node struct {
	ID         string         `yaml:"id" json:"id"`
	Type       string         `yaml:"type" json:"type"`
	Parent     string         `yaml:"parent,omitempty" json:"parent,omitempty"`
	Path       string         `yaml:"path" json:"path"`
	Hidden     bool           `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Dimensions DimensionPoint `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ContentSource is the content repository as seen by this module: sites,
// the dimension model, nodes and their URLs.
type ContentSource interface {
	io.Closer
	Axes(ctx context.Context) (Axes, error)
	Sites(ctx context.Context) ([]Site, error)
	// SiteByHost returns os.ErrNotExist when no site serves host.
	SiteByHost(ctx context.Context, host string) (*Site, error)
	// ResolveDimensions parses the dimension point out of a request path.
	ResolveDimensions(ctx context.Context, site *Site, requestPath string) (DimensionPoint, error)
	// FindNodes returns the nodes of nodeType visible at point, hidden ones included.
	FindNodes(ctx context.Context, site *Site, point DimensionPoint, nodeType string) ([]*Node, error)
	// Node looks a node up in the live workspace; os.ErrNotExist when absent.
	Node(ctx context.Context, site *Site, id string, point DimensionPoint) (*Node, error)
	// NodeURL builds the node URL, absolute when baseURL is set.
	NodeURL(ctx context.Context, site *Site, node *Node, baseURL string) (string, error)
}
