package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMissingStatusCodes  = errors.New("the page is not responsible for any status codes")
	ErrDimensionResolution = errors.New("dimension point cannot be resolved")
	ErrNodeUnresolvable    = errors.New("node cannot be resolved")
	ErrNodeNotVisible      = errors.New("node is not visible")
)

// DiscoveryError 单个错误页配置解析失败，不影响同站点的其他配置
type DiscoveryError struct {
	Site string
	Node string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("error page %s in site %s: %v", e.Node, e.Site, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
