package destination

import (
	"context"

	"github.com/pkg/errors"
)

var ErrEvaluation = errors.New("destination evaluation failed")

// Bindings maps the free template variables; a nil value is bound as null.
type Bindings map[string]any

// Evaluator turns a destination template into a path.
type Evaluator interface {
	Evaluate(ctx context.Context, template string, bindings Bindings) (string, error)
}

const (
	EngineJS       = "js"
	EngineTemplate = "template"
)

func NewEvaluator(engine string, cacheSize int) (Evaluator, error) {
	switch engine {
	case "", EngineJS:
		return NewJSEvaluator(cacheSize)
	case EngineTemplate:
		return NewTemplateEvaluator(cacheSize)
	default:
		return nil, errors.Errorf("unknown destination engine: %s", engine)
	}
}
