package main

import (
	"os"
	"time"

	"github.com/alecthomas/units"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.d7z.net/error-pages/pkg/core"
	"gopkg.d7z.net/error-pages/pkg/destination"
	"gopkg.d7z.net/error-pages/pkg/export"
	"gopkg.d7z.net/error-pages/pkg/resolver"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Content     ConfigContent           `yaml:"content"`     // 内容仓库
	Destination string                  `yaml:"destination"` // 节点错误页的目标路径模板
	Engine      string                  `yaml:"engine"`      // js | template
	Pages       core.SiteConfigurations `yaml:"pages"`       // 静态错误页配置

	Export   ConfigExport   `yaml:"export"`   // 导出配置
	Resolver ConfigResolver `yaml:"resolver"` // 请求期间查找
	Serve    ConfigServe    `yaml:"serve"`    // 错误页代理
}

type ConfigContent struct {
	Source         string        `yaml:"source"`          // file://content.yaml 或 gitea://host/owner/repo
	MarkerType     string        `yaml:"marker_type"`     // 错误页节点类型
	StatusProperty string        `yaml:"status_property"` // 状态码属性
	TTL            time.Duration `yaml:"ttl"`             // 远程内容缓存时间
	Timeout        time.Duration `yaml:"timeout"`         // 远程内容请求超时
	Concurrency    uint64        `yaml:"concurrency"`     // 内容仓库最大并发
}

type ConfigExport struct {
	Production          bool             `yaml:"production"` // 生产环境校验 TLS 证书
	Concurrency         int              `yaml:"concurrency"`
	Timeout             time.Duration    `yaml:"timeout"`
	MaxBody             units.Base2Bytes `yaml:"max_body"` // 单个页面最大大小
	RecursiveVisibility bool             `yaml:"recursive_visibility"`
	Sites               []string         `yaml:"sites"`        // 站点过滤
	MetricsFile         string           `yaml:"metrics_file"` // Prometheus 文本文件
}

type ConfigResolver struct {
	Timeout time.Duration `yaml:"timeout"`
}

type ConfigServe struct {
	Bind     string `yaml:"bind"`
	Upstream string `yaml:"upstream"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var c Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err = decoder.Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	if err = c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) normalize() error {
	if c.Content.Source == "" {
		return errors.New("content.source is required")
	}
	if c.Destination == "" {
		return errors.New("destination is required")
	}
	switch c.Engine {
	case "":
		c.Engine = destination.EngineJS
	case destination.EngineJS, destination.EngineTemplate:
	default:
		return errors.Errorf("unknown engine %q", c.Engine)
	}
	if c.Content.MarkerType == "" {
		c.Content.MarkerType = core.DefaultMarkerType
	}
	if c.Content.StatusProperty == "" {
		c.Content.StatusProperty = core.DefaultStatusProperty
	}
	if c.Content.TTL <= 0 {
		c.Content.TTL = time.Minute
	}
	if c.Content.Timeout <= 0 {
		c.Content.Timeout = 10 * time.Second
	}
	if c.Pages == nil {
		c.Pages = make(core.SiteConfigurations)
	}
	for site, records := range c.Pages {
		valid := make([]core.Record, 0, len(records))
		for i, record := range records {
			if len(record.MatchingStatusCodes) == 0 {
				// 仅忽略该条配置，其余配置继续生效
				zap.L().Warn("skip static error page", zap.String("site", site), zap.Int("index", i),
					zap.String("source", record.Source), zap.Error(core.ErrMissingStatusCodes))
				continue
			}
			if record.Destination == "" {
				record.Destination = c.Destination
			}
			valid = append(valid, record)
		}
		c.Pages[site] = valid
	}
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = export.DefaultConcurrency
	}
	if c.Export.Timeout <= 0 {
		c.Export.Timeout = export.DefaultTimeout
	}
	if c.Export.MaxBody <= 0 {
		c.Export.MaxBody = export.DefaultMaxBody
	}
	if c.Resolver.Timeout <= 0 {
		c.Resolver.Timeout = resolver.DefaultTimeout
	}
	if c.Serve.Bind == "" {
		c.Serve.Bind = ":8080"
	}
	return nil
}
