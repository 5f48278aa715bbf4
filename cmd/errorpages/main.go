package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

var errConfig = errors.New("configuration error")

type Global struct {
	Context context.Context
}

type CLI struct {
	Config string `short:"c" help:"Configuration file path" default:"errorpages.yaml"`
	Debug  bool   `help:"Enable debug logging"`

	Generate GenerateCmd `cmd:"" help:"Export all error pages as static files"`
	Dump     DumpCmd     `cmd:"" help:"Print the merged error page configuration"`
	Preview  PreviewCmd  `cmd:"" help:"Show the configuration and destination of one error page node"`
	Lookup   LookupCmd   `cmd:"" help:"Resolve the static error page for a request URL"`
	Serve    ServeCmd    `cmd:"" help:"Proxy an upstream and replace its errors by static error pages"`
}

func (c *CLI) application() (*application, error) {
	config, err := LoadConfig(c.Config)
	if err != nil {
		return nil, errors.Wrapf(errConfig, "%v", err)
	}
	app, err := newApplication(config)
	if err != nil {
		return nil, errors.Wrapf(errConfig, "%v", err)
	}
	return app, nil
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("errorpages"),
		kong.Description("Static error page resolution and export"),
		kong.UsageOnError(),
	)
	flush := logInject(cli.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	err := kctx.Run(cli, &Global{Context: ctx})
	stop()
	flush()
	os.Exit(exitStatus(err))
}

func exitStatus(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errConfig):
		_, _ = fmt.Fprintln(os.Stderr, err)
		return exitConfig
	default:
		_, _ = fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
}

func logInject(debug bool) func() {
	atom := zap.NewAtomicLevel()
	if debug {
		atom.SetLevel(zap.DebugLevel)
	} else {
		atom.SetLevel(zap.InfoLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = atom

	logger, _ := cfg.Build()
	zap.ReplaceGlobals(logger)
	zap.L().Debug("debug enabled")
	return func() {
		_ = logger.Sync()
	}
}
