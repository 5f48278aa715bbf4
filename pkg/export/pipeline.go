package export

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.d7z.net/error-pages/pkg/core"
	"gopkg.d7z.net/error-pages/pkg/destination"
	"gopkg.d7z.net/error-pages/pkg/utils"
)

const DefaultConcurrency = 4

type Options struct {
	Concurrency         int
	Sites               []string // 站点名称 glob，为空时导出全部站点
	RecursiveVisibility bool
	Verbose             io.Writer
}

// Item is one error page of one site.
type Item struct {
	ID     int
	Site   core.Site
	Record core.Record
}

// Report summarises a run. Only Failed decides the outcome.
type Report struct {
	RunID   string
	Written int64
	Skipped int64
	Failed  int64
}

func (r *Report) Success() bool {
	return r.Failed == 0
}

// Pipeline exports every configured error page as a static file.
type Pipeline struct {
	content    core.ContentSource
	repository *core.Repository
	resolver   *destination.Resolver
	fetcher    *Fetcher
	metrics    *Metrics
	options    Options
	sites      []glob.Glob
	locks      *utils.Locker
}

func NewPipeline(content core.ContentSource, repository *core.Repository, resolver *destination.Resolver,
	fetcher *Fetcher, metrics *Metrics, options Options,
) (*Pipeline, error) {
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}
	p := &Pipeline{
		content:    content,
		repository: repository,
		resolver:   resolver,
		fetcher:    fetcher,
		metrics:    metrics,
		options:    options,
		locks:      utils.NewLocker(),
	}
	for _, pattern := range options.Sites {
		compile, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid site filter %q", pattern)
		}
		p.sites = append(p.sites, compile)
	}
	return p, nil
}

func (p *Pipeline) selected(site string) bool {
	if len(p.sites) == 0 {
		return true
	}
	for _, g := range p.sites {
		if g.Match(site) {
			return true
		}
	}
	return false
}

// Items lists the export work. Sites that cannot be exported are skipped here
// and counted in report.
func (p *Pipeline) Items(ctx context.Context, report *Report) ([]Item, error) {
	configuration, err := p.repository.Configuration(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := p.content.Sites(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load sites")
	}
	known := make(map[string]core.Site, len(sites))
	for _, site := range sites {
		known[site.Name] = site
	}
	items := make([]Item, 0)
	for _, name := range configuration.Sites() {
		if !p.selected(name) {
			continue
		}
		records := configuration[name]
		site, ok := known[name]
		switch {
		case !ok:
			zap.L().Warn("skip unknown site", zap.String("site", name))
		case !site.Online:
			zap.L().Debug("skip offline site", zap.String("site", name))
		case site.PrimaryDomain == "":
			zap.L().Warn("skip site without primary domain", zap.String("site", name))
		default:
			for _, record := range records {
				items = append(items, Item{ID: len(items) + 1, Site: site, Record: record})
			}
			continue
		}
		if report != nil {
			report.Skipped += int64(len(records))
		}
		for range records {
			p.metrics.IncItem(name, ResultSkipped)
		}
	}
	return items, nil
}

// Generate exports all items with a bounded worker pool. A failed item does
// not stop the others; the report tells whether anything failed.
func (p *Pipeline) Generate(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	items, err := p.Items(ctx, report)
	if err != nil {
		return report, err
	}
	progress := p.progress(report.RunID)
	defer func() { _ = progress.Sync() }()
	zap.L().Info("export started", zap.String("run", report.RunID), zap.Int("items", len(items)))

	var written, skipped, failed atomic.Int64
	sem := make(chan struct{}, p.options.Concurrency)
	var wg sync.WaitGroup
loop:
	for _, item := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func(item Item) {
			defer wg.Done()
			defer func() { <-sem }()
			log := progress.With(zap.Int("item", item.ID), zap.String("site", item.Site.Name),
				zap.String("source", item.Record.Source))
			target, err := p.Export(ctx, item)
			switch {
			case err == nil:
				written.Add(1)
				p.metrics.IncItem(item.Site.Name, ResultWritten)
				log.Info("written", zap.String("destination", target))
			case errors.Is(err, core.ErrNodeUnresolvable), errors.Is(err, core.ErrNodeNotVisible):
				skipped.Add(1)
				p.metrics.IncItem(item.Site.Name, ResultSkipped)
				log.Info("skipped", zap.Error(err))
			default:
				failed.Add(1)
				p.metrics.IncItem(item.Site.Name, ResultFailed)
				log.Error("failed", zap.Error(err))
				zap.L().Error("export failed", zap.String("run", report.RunID), zap.Int("item", item.ID),
					zap.String("site", item.Site.Name), zap.Error(err))
			}
		}(item)
	}
	wg.Wait()
	report.Written += written.Load()
	report.Skipped += skipped.Load()
	report.Failed += failed.Load()
	if err := ctx.Err(); err != nil {
		report.Failed += int64(len(items)) - written.Load() - skipped.Load() - failed.Load()
		return report, err
	}
	zap.L().Info("export finished", zap.String("run", report.RunID), zap.Int64("written", report.Written),
		zap.Int64("skipped", report.Skipped), zap.Int64("failed", report.Failed))
	return report, nil
}

// Export fetches and writes one item, returning the destination path.
func (p *Pipeline) Export(ctx context.Context, item Item) (string, error) {
	site := &item.Site
	node, err := p.node(ctx, site, &item.Record)
	if err != nil {
		return "", err
	}
	if err = p.visible(ctx, site, node, item.Record.Dimensions); err != nil {
		return "", err
	}
	nodeURL, err := p.content.NodeURL(ctx, site, node, site.BaseURL())
	if err != nil {
		return "", errors.Wrapf(core.ErrNodeUnresolvable, "url of %s: %v", node.ID, err)
	}
	start := time.Now()
	body, err := p.fetcher.Fetch(ctx, nodeURL)
	p.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return "", err
	}
	target, err := p.resolver.Destination(ctx, &item.Record, site.Name)
	if err != nil {
		return "", err
	}
	// 多个配置可能指向同一个目标文件
	unlock := p.locks.Lock(target)
	defer unlock()
	if err = WriteFile(target, body); err != nil {
		return "", err
	}
	return target, nil
}

func (p *Pipeline) node(ctx context.Context, site *core.Site, record *core.Record) (*core.Node, error) {
	id, ok := record.NodeReference()
	if !ok {
		return nil, errors.Wrapf(core.ErrNodeUnresolvable, "source %q", record.Source)
	}
	node, err := p.content.Node(ctx, site, id, record.Dimensions)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(core.ErrNodeUnresolvable, "%s: %v", id, err)
		}
		return nil, err
	}
	return node, nil
}

func (p *Pipeline) visible(ctx context.Context, site *core.Site, node *core.Node, point core.DimensionPoint) error {
	if node.Hidden {
		return errors.Wrapf(core.ErrNodeNotVisible, "%s", node.ID)
	}
	if !p.options.RecursiveVisibility {
		return nil
	}
	seen := map[string]bool{node.ID: true}
	for parent := node.Parent; parent != "" && !seen[parent]; {
		seen[parent] = true
		ancestor, err := p.content.Node(ctx, site, parent, point)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// 祖先节点不存在时视为到达根节点
				return nil
			}
			return err
		}
		if ancestor.Hidden {
			return errors.Wrapf(core.ErrNodeNotVisible, "%s hidden by ancestor %s", node.ID, ancestor.ID)
		}
		parent = ancestor.Parent
	}
	return nil
}

func (p *Pipeline) progress(run string) *zap.Logger {
	if p.options.Verbose == nil {
		return zap.NewNop()
	}
	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.TimeKey = ""
	sink := zapcore.Lock(zapcore.AddSync(p.options.Verbose))
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encoder), sink, zap.DebugLevel)).
		With(zap.String("run", run))
}
