package providers

import (
	"context"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.d7z.net/error-pages/pkg/core"
	"gopkg.d7z.net/error-pages/pkg/utils"
	"gopkg.in/yaml.v3"
)

// ContentGraph is the serialized form of a content repository.
type ContentGraph struct {
	Dimensions core.Axes     `yaml:"dimensions"`
	AllowEmpty *bool         `yaml:"allow_empty_dimension_segment,omitempty"`
	Sites      []ContentSite `yaml:"sites"`
}

type ContentSite struct {
	core.Site `yaml:",inline"`
	Nodes     []*core.Node `yaml:"nodes"`
}

func ParseContentGraph(data []byte) (*ContentGraph, error) {
	graph := new(ContentGraph)
	if err := yaml.Unmarshal(data, graph); err != nil {
		return nil, errors.Wrap(err, "parse content graph")
	}
	for _, site := range graph.Sites {
		if site.Name == "" {
			return nil, errors.New("site without name")
		}
		for _, node := range site.Nodes {
			if node.ID == "" {
				return nil, errors.Errorf("node without id in site %s", site.Name)
			}
		}
	}
	return graph, nil
}

// Memory 内存中的内容仓库
type Memory struct {
	mu         sync.RWMutex
	axes       core.Axes
	allowEmpty bool
	sites      []*ContentSite
}

func NewMemory(graph *ContentGraph) *Memory {
	m := &Memory{allowEmpty: true}
	if graph == nil {
		return m
	}
	m.axes = graph.Dimensions
	if graph.AllowEmpty != nil {
		m.allowEmpty = *graph.AllowEmpty
	}
	for i := range graph.Sites {
		m.sites = append(m.sites, &graph.Sites[i])
	}
	return m
}

func (m *Memory) SetAxes(axes ...core.Axis) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.axes = axes
	return m
}

func (m *Memory) AddSite(site core.Site, nodes ...*core.Node) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites = append(m.sites, &ContentSite{Site: site, Nodes: nodes})
	return m
}

func (m *Memory) AddNode(site string, nodes ...*core.Node) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sites {
		if s.Name == site {
			s.Nodes = append(s.Nodes, nodes...)
		}
	}
	return m
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Axes(_ context.Context) (core.Axes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.axes), nil
}

func (m *Memory) Sites(_ context.Context) ([]core.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]core.Site, 0, len(m.sites))
	for _, site := range m.sites {
		result = append(result, site.Site)
	}
	return result, nil
}

func (m *Memory) SiteByHost(_ context.Context, host string) (*core.Site, error) {
	host = utils.NormalizeHost(host)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, site := range m.sites {
		if site.PrimaryDomain != "" && utils.HostOf(site.PrimaryDomain) == host {
			s := site.Site
			return &s, nil
		}
		for _, domain := range site.Domains {
			if utils.HostOf(domain) == host {
				s := site.Site
				return &s, nil
			}
		}
	}
	return nil, errors.Wrapf(os.ErrNotExist, "no site for host %s", host)
}

func (m *Memory) ResolveDimensions(_ context.Context, _ *core.Site, requestPath string) (core.DimensionPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.axes.ResolvePath(requestPath, m.allowEmpty)
}

func (m *Memory) FindNodes(_ context.Context, site *core.Site, point core.DimensionPoint, nodeType string) ([]*core.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.site(site.Name)
	if s == nil {
		return nil, errors.Wrapf(os.ErrNotExist, "site %s", site.Name)
	}
	result := make([]*core.Node, 0)
	for _, node := range s.Nodes {
		if node.Type == nodeType && node.Dimensions.Covers(point) {
			result = append(result, cloneNode(node))
		}
	}
	return result, nil
}

func (m *Memory) Node(_ context.Context, site *core.Site, id string, point core.DimensionPoint) (*core.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.site(site.Name)
	if s == nil {
		return nil, errors.Wrapf(os.ErrNotExist, "site %s", site.Name)
	}
	for _, node := range s.Nodes {
		if node.ID == id && node.Dimensions.Covers(point) {
			return cloneNode(node), nil
		}
	}
	return nil, errors.Wrapf(os.ErrNotExist, "node %s in site %s", id, site.Name)
}

func (m *Memory) NodeURL(_ context.Context, _ *core.Site, node *core.Node, baseURL string) (string, error) {
	m.mu.RLock()
	prefix := ""
	if len(m.axes) > 0 {
		prefix = m.axes.URIPrefix(node.Dimensions)
	}
	m.mu.RUnlock()
	segments := make([]string, 0, 2)
	if prefix != "" {
		segments = append(segments, prefix)
	}
	if p := strings.Trim(node.Path, "/"); p != "" {
		segments = append(segments, p)
	}
	nodePath := "/" + strings.Join(segments, "/")
	if baseURL == "" {
		return nodePath, nil
	}
	return url.JoinPath(baseURL, nodePath)
}

func (m *Memory) site(name string) *ContentSite {
	for _, site := range m.sites {
		if site.Name == name {
			return site
		}
	}
	return nil
}

func cloneNode(node *core.Node) *core.Node {
	clone := *node
	return &clone
}
