package providers

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LocalContent reads the content graph from a YAML file and re-parses it
// whenever the file changes.
type LocalContent struct {
	snapshot
	path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	memory  *Memory
}

func NewLocalContent(path string) (*LocalContent, error) {
	l := &LocalContent{path: path}
	l.snapshot = snapshot{current: l.load}
	if _, err := l.load(context.Background()); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LocalContent) Close() error {
	return nil
}

func (l *LocalContent) load(_ context.Context) (*Memory, error) {
	stat, err := os.Stat(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat content file %s", l.path)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.memory != nil && stat.ModTime().Equal(l.modTime) && stat.Size() == l.size {
		return l.memory, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read content file %s", l.path)
	}
	graph, err := ParseContentGraph(data)
	if err != nil {
		return nil, errors.Wrapf(err, "content file %s", l.path)
	}
	zap.L().Debug("content graph loaded", zap.String("path", l.path), zap.Int("sites", len(graph.Sites)))
	l.memory = NewMemory(graph)
	l.modTime = stat.ModTime()
	l.size = stat.Size()
	return l.memory, nil
}
