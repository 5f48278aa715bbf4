package destination

import (
	"context"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/url"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultEvaluationTimeout = time.Second

// JSEvaluator evaluates a template as a JavaScript template literal, so
// `/errors/${site}/${dimensions}.html` and `${site + '-' + dimensions}` both work.
type JSEvaluator struct {
	Timeout time.Duration

	programs *lru.Cache[string, *goja.Program]
	registry *require.Registry
}

func NewJSEvaluator(cacheSize int) (*JSEvaluator, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	programs, err := lru.New[string, *goja.Program](cacheSize)
	if err != nil {
		return nil, err
	}
	registry := require.NewRegistry()
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{}))
	return &JSEvaluator{
		Timeout:  DefaultEvaluationTimeout,
		programs: programs,
		registry: registry,
	}, nil
}

func (e *JSEvaluator) compile(template string) (*goja.Program, error) {
	if program, ok := e.programs.Get(template); ok {
		return program, nil
	}
	program, err := goja.Compile("destination", templateLiteral(template), true)
	if err != nil {
		return nil, err
	}
	e.programs.Add(template, program)
	return program, nil
}

func (e *JSEvaluator) Evaluate(ctx context.Context, template string, bindings Bindings) (string, error) {
	program, err := e.compile(template)
	if err != nil {
		return "", errors.Wrapf(ErrEvaluation, "compile %q: %v", template, err)
	}
	// goja.Runtime 非并发安全，每次求值使用独立的运行时
	vm := goja.New()
	e.registry.Enable(vm)
	console.Enable(vm)
	url.Enable(vm)
	for key, value := range bindings {
		if err := vm.Set(key, value); err != nil {
			return "", errors.Wrapf(ErrEvaluation, "bind %s: %v", key, err)
		}
	}
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()
	if e.Timeout > 0 {
		timer := time.AfterFunc(e.Timeout, func() {
			vm.Interrupt("evaluation timeout")
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return "", errors.Wrapf(ErrEvaluation, "evaluate %q: %v", template, err)
	}
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return "", errors.Wrapf(ErrEvaluation, "evaluate %q: no result", template)
	}
	result := value.String()
	if result == "" {
		return "", errors.Wrapf(ErrEvaluation, "evaluate %q: empty result", template)
	}
	return result, nil
}

// templateLiteral quotes template as a JS template literal. Backslashes and
// backticks outside of ${} are kept verbatim; expressions are left untouched.
func templateLiteral(template string) string {
	var builder strings.Builder
	builder.Grow(len(template) + 2)
	builder.WriteByte('`')
	depth := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case depth == 0 && c == '$' && i+1 < len(template) && template[i+1] == '{':
			builder.WriteString("${")
			i++
			depth = 1
		case depth == 0 && (c == '\\' || c == '`'):
			builder.WriteByte('\\')
			builder.WriteByte(c)
		case depth > 0 && c == '{':
			depth++
			builder.WriteByte(c)
		case depth > 0 && c == '}':
			depth--
			builder.WriteByte(c)
		default:
			builder.WriteByte(c)
		}
	}
	builder.WriteByte('`')
	return builder.String()
}

type consolePrinter struct{}

func (consolePrinter) Log(s string) {
	zap.L().Debug(s, zap.String("source", "destination"))
}

func (consolePrinter) Warn(s string) {
	zap.L().Warn(s, zap.String("source", "destination"))
}

func (consolePrinter) Error(s string) {
	zap.L().Error(s, zap.String("source", "destination"))
}
