package core

import (
	"context"
	"net/url"
	"path"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Source yields error page configuration partitioned by site name.
type Source interface {
	Configuration(ctx context.Context) (SiteConfigurations, error)
}

// StaticSource 来自配置文件的错误页配置
type StaticSource struct {
	pages SiteConfigurations
}

func NewStaticSource(pages SiteConfigurations) *StaticSource {
	if pages == nil {
		pages = make(SiteConfigurations)
	}
	return &StaticSource{pages: pages}
}

func (s *StaticSource) Configuration(_ context.Context) (SiteConfigurations, error) {
	result := make(SiteConfigurations, len(s.pages))
	for site, records := range s.pages {
		result[site] = slices.Clone(records)
	}
	return result, nil
}

const (
	DefaultMarkerType     = "ErrorPage"
	DefaultStatusProperty = "matchingStatusCodes"
)

// NodeSource discovers error pages from marker nodes of every online site.
type NodeSource struct {
	content        ContentSource
	markerType     string
	statusProperty string
	destination    string
}

func NewNodeSource(content ContentSource, markerType, statusProperty, destination string) *NodeSource {
	if markerType == "" {
		markerType = DefaultMarkerType
	}
	if statusProperty == "" {
		statusProperty = DefaultStatusProperty
	}
	return &NodeSource{
		content:        content,
		markerType:     markerType,
		statusProperty: statusProperty,
		destination:    destination,
	}
}

func (s *NodeSource) Configuration(ctx context.Context) (SiteConfigurations, error) {
	axes, err := s.content.Axes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load dimensions")
	}
	sites, err := s.content.Sites(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load sites")
	}
	points := axes.Enumerate()
	result := make(SiteConfigurations)
	for i := range sites {
		site := &sites[i]
		if !site.Online {
			zap.L().Debug("skip offline site", zap.String("site", site.Name))
			continue
		}
		records := make([]Record, 0)
		for _, point := range points {
			nodes, err := s.content.FindNodes(ctx, site, point, s.markerType)
			if err != nil {
				zap.L().Warn("failed to find error pages", zap.String("site", site.Name),
					zap.String("dimensions", point.Key()), zap.Error(err))
				continue
			}
			for _, node := range nodes {
				record, err := s.Record(ctx, site, axes, node)
				if err != nil {
					// 单个错误页配置异常不影响其他错误页
					zap.L().Warn("skip error page", zap.Error(err))
					continue
				}
				records = append(records, *record)
			}
		}
		records = Dedupe(records)
		slices.SortStableFunc(records, func(a, b Record) int {
			return a.Position - b.Position
		})
		result[site.Name] = records
	}
	return result, nil
}

// Record builds the configuration of one error page node.
func (s *NodeSource) Record(ctx context.Context, site *Site, axes Axes, node *Node) (*Record, error) {
	codes, err := StatusCodes(node.Properties[s.statusProperty])
	if err != nil {
		return nil, &DiscoveryError{Site: site.Name, Node: node.ID, Err: err}
	}
	prefixes, err := s.pathPrefixes(ctx, site, node)
	if err != nil {
		return nil, &DiscoveryError{Site: site.Name, Node: node.ID, Err: err}
	}
	dimensions := make(DimensionPoint, len(node.Dimensions))
	for axis, value := range node.Dimensions {
		dimensions[axis] = value
	}
	return &Record{
		MatchingStatusCodes: codes,
		Dimensions:          dimensions,
		DimensionSegment:    dimensions.Segment(axes...),
		Source:              "#" + node.ID,
		Destination:         s.destination,
		PathPrefixes:        prefixes,
		Position:            Position(prefixes),
	}, nil
}

func (s *NodeSource) pathPrefixes(ctx context.Context, site *Site, node *Node) ([]string, error) {
	nodeURL, err := s.content.NodeURL(ctx, site, node, "")
	if err != nil {
		return nil, errors.Wrap(err, "resolve node url")
	}
	parsed, err := url.Parse(nodeURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse node url %s", nodeURL)
	}
	p := parsed.Path
	if p == "" {
		p = "/"
	}
	return []string{path.Dir(p)}, nil
}

// StatusCodes normalises a status code property: a list or a single scalar.
func StatusCodes(value any) ([]int, error) {
	var items []any
	switch v := value.(type) {
	case nil:
		return nil, ErrMissingStatusCodes
	case []any:
		items = v
	case []int:
		for _, code := range v {
			items = append(items, code)
		}
	case []string:
		for _, code := range v {
			items = append(items, code)
		}
	default:
		items = []any{v}
	}
	codes := make([]int, 0, len(items))
	for _, item := range items {
		code, err := statusCode(item)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, ErrMissingStatusCodes
	}
	return codes, nil
}

func statusCode(value any) (int, error) {
	var code int
	switch v := value.(type) {
	case int:
		code = v
	case int64:
		code = int(v)
	case float64:
		code = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid status code %q", v)
		}
		code = parsed
	default:
		return 0, errors.Errorf("invalid status code %v", value)
	}
	if code <= 0 {
		return 0, errors.Errorf("invalid status code %d", code)
	}
	return code, nil
}
