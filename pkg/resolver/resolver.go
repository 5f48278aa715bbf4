package resolver

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.d7z.net/error-pages/pkg/core"
	"gopkg.d7z.net/error-pages/pkg/destination"
)

const DefaultTimeout = 2 * time.Second

// RequestContext carries the parts of a request the lookup depends on.
type RequestContext struct {
	Host string
	Path string
}

func FromRequest(r *http.Request) RequestContext {
	return RequestContext{Host: r.Host, Path: r.URL.Path}
}

// Match is the outcome of a lookup.
type Match struct {
	Site        string
	Dimensions  core.DimensionPoint
	Record      *core.Record
	Destination string
}

// RuntimeResolver 在请求期间查找已导出的错误页
type RuntimeResolver struct {
	content    core.ContentSource
	repository *core.Repository
	resolver   *destination.Resolver
	timeout    time.Duration
}

func NewRuntimeResolver(content core.ContentSource, repository *core.Repository, resolver *destination.Resolver, timeout time.Duration) *RuntimeResolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RuntimeResolver{
		content:    content,
		repository: repository,
		resolver:   resolver,
		timeout:    timeout,
	}
}

// Resolve returns os.ErrNotExist when the request has no error page.
func (r *RuntimeResolver) Resolve(ctx context.Context, request RequestContext, statusCode int) (*Match, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	site, err := r.content.SiteByHost(ctx, request.Host)
	if err != nil {
		return nil, err
	}
	point, err := r.content.ResolveDimensions(ctx, site, request.Path)
	if err != nil {
		// 无法解析维度时不按维度过滤
		zap.L().Debug("dimensions unresolved", zap.String("path", request.Path), zap.Error(err))
		point = nil
	}
	records, err := r.repository.ForSite(ctx, site.Name)
	if err != nil {
		return nil, err
	}
	record := core.Match(records, point, statusCode, request.Path)
	if record == nil {
		return nil, errors.Wrapf(os.ErrNotExist, "no error page for %d in site %s", statusCode, site.Name)
	}
	target, err := r.resolver.Destination(ctx, record, site.Name)
	if err != nil {
		return nil, err
	}
	return &Match{
		Site:        site.Name,
		Dimensions:  point,
		Record:      record,
		Destination: target,
	}, nil
}

// FindErrorPage returns the exported file for the request, if one is configured.
// Lookup failures are logged and reported as no page.
func (r *RuntimeResolver) FindErrorPage(ctx context.Context, request RequestContext, statusCode int) (string, bool) {
	match, err := r.Resolve(ctx, request, statusCode)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("error page lookup failed", zap.String("host", request.Host),
				zap.String("path", request.Path), zap.Int("status", statusCode), zap.Error(err))
		}
		return "", false
	}
	return match.Destination, true
}
