package utils

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

var portExp = regexp.MustCompile(`:\d+$`)

// NormalizeHost lower-cases host and strips the port.
func NormalizeHost(host string) string {
	return portExp.ReplaceAllString(strings.ToLower(strings.TrimSpace(host)), "")
}

// HostOf returns the normalized host of a URL or a bare domain.
func HostOf(domain string) string {
	if _, rest, ok := strings.Cut(domain, "://"); ok {
		domain = rest
	}
	domain, _, _ = strings.Cut(domain, "/")
	return NormalizeHost(domain)
}

// 注意，相关 ip 获取未做反向代理安全判断，可能导致安全降级

func GetRemoteIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		ips := strings.Split(forwardedFor, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
