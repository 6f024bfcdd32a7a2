package provider

import (
	"net/url"
	"strings"

	"fxconv-service/internal/infrastructure/httpx"
)

const urlPlaceholder = "{url}"

// WrapURL puts the escaped upstream into the template placeholder, or appends
// it when the template has none.
func WrapURL(template, upstream string) string {
	esc := url.QueryEscape(upstream)
	if strings.Contains(template, urlPlaceholder) {
		return strings.ReplaceAll(template, urlPlaceholder, esc)
	}
	return template + esc
}

// ProxyName is the relay host, used as the source name in logs and metrics.
func ProxyName(template string) string {
	u, err := url.Parse(strings.ReplaceAll(template, urlPlaceholder, ""))
	if err != nil || u.Host == "" {
		return "cors-proxy"
	}
	return u.Host
}

// NewCORSProxySource fetches the upstream XML through a public relay.
func NewCORSProxySource(template, upstream string, client *httpx.Client) *NBKRSource {
	return &NBKRSource{
		SourceName: ProxyName(template),
		URL:        WrapURL(template, upstream),
		Client:     client,
	}
}
