package resolver

import (
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"
	"gopkg.d7z.net/error-pages/pkg/utils"
)

var replacedHeaders = []string{
	"Content-Length", "Content-Encoding", "Content-Range", "Content-Disposition",
	"Content-Language", "Content-Md5", "Accept-Ranges", "Etag", "Last-Modified",
}

// Fallback renders an error response without a static page.
type Fallback func(writer http.ResponseWriter, request *http.Request, statusCode int)

func DefaultFallback(writer http.ResponseWriter, _ *http.Request, statusCode int) {
	http.Error(writer, http.StatusText(statusCode), statusCode)
}

// ErrorRenderer answers errors with the exported page and falls back to
// dynamic rendering when the page is not configured or missing on disk.
type ErrorRenderer struct {
	resolver *RuntimeResolver
	fallback Fallback
}

func NewErrorRenderer(resolver *RuntimeResolver, fallback Fallback) *ErrorRenderer {
	if fallback == nil {
		fallback = DefaultFallback
	}
	return &ErrorRenderer{resolver: resolver, fallback: fallback}
}

func (e *ErrorRenderer) Render(writer http.ResponseWriter, request *http.Request, statusCode int) {
	if e.Serve(writer, request, statusCode) {
		return
	}
	e.fallback(writer, request, statusCode)
}

// Serve writes the static page and reports whether it did.
func (e *ErrorRenderer) Serve(writer http.ResponseWriter, request *http.Request, statusCode int) bool {
	target, ok := e.resolver.FindErrorPage(request.Context(), FromRequest(request), statusCode)
	if !ok {
		return false
	}
	file, err := os.Open(target)
	if err != nil {
		zap.L().Debug("static error page unavailable", zap.String("path", target),
			zap.String("remote", utils.GetRemoteIP(request)), zap.Error(err))
		return false
	}
	defer file.Close()
	header := writer.Header()
	// 原始响应体相关的头部不再适用
	for _, key := range replacedHeaders {
		header.Del(key)
	}
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("X-Error-Page", "static")
	writer.WriteHeader(statusCode)
	_, _ = io.Copy(writer, file)
	return true
}

// Handler wraps next and replaces its error responses by the static page when
// one exists. Otherwise the response of next is passed through untouched.
func (e *ErrorRenderer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		next.ServeHTTP(&interceptWriter{ResponseWriter: writer, request: request, renderer: e}, request)
	})
}

type interceptWriter struct {
	http.ResponseWriter
	request   *http.Request
	renderer  *ErrorRenderer
	committed bool
	rendered  bool
}

func (w *interceptWriter) WriteHeader(statusCode int) {
	if w.committed {
		return
	}
	w.committed = true
	if statusCode >= http.StatusBadRequest && w.renderer.Serve(w.ResponseWriter, w.request, statusCode) {
		w.rendered = true
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *interceptWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	if w.rendered {
		// 原始错误内容被错误页替换
		return len(data), nil
	}
	return w.ResponseWriter.Write(data)
}

// Unwrap exposes the underlying writer to http.ResponseController, which
// upgrades and flushes through it.
func (w *interceptWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
