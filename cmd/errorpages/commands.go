package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.d7z.net/error-pages/pkg/export"
	"gopkg.d7z.net/error-pages/pkg/resolver"
	"gopkg.in/yaml.v3"
)

var errExportFailed = errors.New("export finished with failures")

type GenerateCmd struct {
	Verbose bool     `short:"v" help:"Print one line per exported error page"`
	Site    []string `help:"Only export sites matching these glob patterns"`
}

func (g *GenerateCmd) Run(cli *CLI, global *Global) error {
	app, err := cli.application()
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.config.Export
	sites := cfg.Sites
	if len(g.Site) > 0 {
		sites = g.Site
	}
	options := export.Options{
		Concurrency:         cfg.Concurrency,
		Sites:               sites,
		RecursiveVisibility: cfg.RecursiveVisibility,
	}
	if g.Verbose {
		options.Verbose = os.Stdout
	}
	registry := prometheus.NewRegistry()
	pipeline, err := export.NewPipeline(app.content, app.repository, app.resolver,
		export.NewFetcher(cfg.Production, cfg.Timeout, cfg.MaxBody),
		export.NewMetrics(registry), options)
	if err != nil {
		return errors.Wrapf(errConfig, "%v", err)
	}
	report, err := pipeline.Generate(global.Context)
	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, registry); werr != nil {
			zap.L().Warn("failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d written, %d skipped, %d failed\n", report.RunID, report.Written, report.Skipped, report.Failed)
	if !report.Success() {
		return errExportFailed
	}
	return nil
}

type DumpCmd struct {
	Site string `help:"Only print the configuration of this site"`
}

func (d *DumpCmd) Run(cli *CLI, global *Global) error {
	app, err := cli.application()
	if err != nil {
		return err
	}
	defer app.Close()
	configuration, err := app.repository.Configuration(global.Context)
	if err != nil {
		return err
	}
	var out any = configuration
	if d.Site != "" {
		records, ok := configuration[d.Site]
		if !ok {
			return errors.Errorf("no error pages for site %s", d.Site)
		}
		out = records
	}
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(out)
}

type PreviewCmd struct {
	Site string `required:"" help:"Site name"`
	Node string `required:"" help:"Error page node identifier"`
}

func (p *PreviewCmd) Run(cli *CLI, global *Global) error {
	app, err := cli.application()
	if err != nil {
		return err
	}
	defer app.Close()
	record, target, err := app.preview(global.Context, p.Site, strings.TrimPrefix(p.Node, "#"))
	if record != nil {
		fmt.Printf("record: %s\n", record)
	}
	if err != nil {
		return err
	}
	fmt.Printf("destination: %s\n", target)
	return nil
}

type LookupCmd struct {
	URL    string `arg:"" help:"Request URL"`
	Status int    `default:"404" help:"HTTP status code"`
}

func (l *LookupCmd) Run(cli *CLI, global *Global) error {
	app, err := cli.application()
	if err != nil {
		return err
	}
	defer app.Close()
	parse, err := url.Parse(l.URL)
	if err != nil {
		return errors.Wrapf(err, "parse url %s", l.URL)
	}
	match, err := app.runtime().Resolve(global.Context, resolver.RequestContext{Host: parse.Host, Path: parse.Path}, l.Status)
	if err != nil {
		return err
	}
	fmt.Printf("site: %s\ndimensions: %s\nrecord: %s\ndestination: %s\n",
		match.Site, match.Dimensions.Key(), match.Record, match.Destination)
	return nil
}

type ServeCmd struct {
	Bind     string `help:"HTTP bind address, overrides serve.bind"`
	Upstream string `help:"Upstream URL, overrides serve.upstream"`
}

func (s *ServeCmd) Run(cli *CLI, global *Global) error {
	app, err := cli.application()
	if err != nil {
		return err
	}
	defer app.Close()
	bind, upstream := app.config.Serve.Bind, app.config.Serve.Upstream
	if s.Bind != "" {
		bind = s.Bind
	}
	if s.Upstream != "" {
		upstream = s.Upstream
	}
	target, err := url.Parse(upstream)
	if err != nil || target.Host == "" {
		return errors.Wrapf(errConfig, "invalid upstream %q", upstream)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	renderer := resolver.NewErrorRenderer(app.runtime(), nil)
	proxy.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		zap.L().Warn("upstream unavailable", zap.String("upstream", upstream), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
	svc := http.Server{
		Addr:              bind,
		Handler:           renderer.Handler(proxy),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-global.Context.Done()
		zap.L().Debug("shutdown gracefully")
		_ = svc.Close()
	}()
	zap.L().Info("serving error pages", zap.String("bind", bind), zap.String("upstream", upstream))
	if err = svc.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
