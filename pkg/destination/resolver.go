package destination

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.d7z.net/error-pages/pkg/core"
)

var nodeIdentifierExp = regexp.MustCompile(`^#([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})$`)

// Resolver 根据配置计算错误页的目标路径
type Resolver struct {
	evaluator Evaluator
}

func NewResolver(evaluator Evaluator) *Resolver {
	return &Resolver{evaluator: evaluator}
}

// NodeIdentifier extracts the node identifier from a `#<uuid>` source.
func NodeIdentifier(source string) (string, bool) {
	matches := nodeIdentifierExp.FindStringSubmatch(source)
	if matches == nil {
		return "", false
	}
	if _, err := uuid.Parse(matches[1]); err != nil {
		return "", false
	}
	return matches[1], true
}

// RecordBindings returns the variables visible to the destination template.
func RecordBindings(record *core.Record, site string) Bindings {
	var node any
	if id, ok := NodeIdentifier(record.Source); ok {
		node = id
	}
	return Bindings{
		"site":       site,
		"node":       node,
		"dimensions": record.PathSegment(),
	}
}

// Destination evaluates the destination template of record for site.
func (r *Resolver) Destination(ctx context.Context, record *core.Record, site string) (string, error) {
	if record.Destination == "" {
		return "", errors.Wrapf(ErrEvaluation, "no destination for %s in site %s", record.Source, site)
	}
	return r.evaluator.Evaluate(ctx, record.Destination, RecordBindings(record, site))
}
