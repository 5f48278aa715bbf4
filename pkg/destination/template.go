package destination

import (
	"bytes"
	"context"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// TemplateEvaluator evaluates Go templates, e.g. `/errors/{{ .site }}/{{ .dimensions }}.html`.
// Unknown variables fail the evaluation.
type TemplateEvaluator struct {
	templates *lru.Cache[string, *template.Template]
}

func NewTemplateEvaluator(cacheSize int) (*TemplateEvaluator, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	templates, err := lru.New[string, *template.Template](cacheSize)
	if err != nil {
		return nil, err
	}
	return &TemplateEvaluator{templates: templates}, nil
}

func (e *TemplateEvaluator) parse(data string) (*template.Template, error) {
	if tpl, ok := e.templates.Get(data); ok {
		return tpl, nil
	}
	tpl, err := template.New("destination").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(data)
	if err != nil {
		return nil, err
	}
	e.templates.Add(data, tpl)
	return tpl, nil
}

func (e *TemplateEvaluator) Evaluate(_ context.Context, data string, bindings Bindings) (string, error) {
	tpl, err := e.parse(data)
	if err != nil {
		return "", errors.Wrapf(ErrEvaluation, "parse %q: %v", data, err)
	}
	out := &bytes.Buffer{}
	if err = tpl.Execute(out, map[string]any(bindings)); err != nil {
		return "", errors.Wrapf(ErrEvaluation, "execute %q: %v", data, err)
	}
	if out.Len() == 0 {
		return "", errors.Wrapf(ErrEvaluation, "execute %q: empty result", data)
	}
	return out.String(), nil
}
