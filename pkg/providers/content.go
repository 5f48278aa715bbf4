package providers

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.d7z.net/error-pages/pkg/core"
)

// NewContentFromURL opens a content source:
//
//	file://content.yaml, ./content.yaml, /abs/content.yaml
//	gitea://git.example.com/owner/repo?ref=main&path=content.yaml&scheme=https
//
// The Gitea token is read from GITEA_TOKEN.
func NewContentFromURL(client *http.Client, src string, ttl time.Duration) (core.ContentSource, error) {
	if src == "" {
		return nil, errors.New("content source is required")
	}
	if !strings.Contains(src, "://") {
		return NewLocalContent(src)
	}
	parse, err := url.Parse(src)
	if err != nil {
		return nil, errors.Wrapf(err, "parse content source %s", src)
	}
	switch parse.Scheme {
	case "file":
		return NewLocalContent(parse.Host + parse.Path)
	case "gitea":
		query := parse.Query()
		scheme := query.Get("scheme")
		if scheme == "" {
			scheme = "https"
		}
		owner, repo, _ := strings.Cut(strings.Trim(parse.Path, "/"), "/")
		return NewGiteaContent(client, scheme+"://"+parse.Host, os.Getenv("GITEA_TOKEN"),
			owner, repo, query.Get("ref"), query.Get("path"), ttl)
	default:
		return nil, errors.Errorf("unsupported scheme: %s", parse.Scheme)
	}
}
