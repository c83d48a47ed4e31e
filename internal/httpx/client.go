// Package httpx builds the HTTP clients used to reach the hub,
// including proxy support and transfer-friendly transport settings.
package httpx

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"

	"github.com/drivenav/drivenav/internal/config"
)

const (
	dialTimeout           = 30 * time.Second
	dialKeepAlive         = 30 * time.Second
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 30 * time.Second
	expectContinueTimeout = 5 * time.Second
)

// NewClient builds an HTTP client from the proxy configuration.
//
// Three proxy modes are supported:
//   - "no-proxy" (default): direct connections
//   - "system": honor HTTP_PROXY / HTTPS_PROXY / NO_PROXY
//   - "ntlm": explicit proxy with NTLM negotiation
//
// The returned client has no overall timeout; transfers are bounded by
// per-operation contexts instead.
func NewClient(cfg *config.Config) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
		// Already-compressed payloads dominate transfer traffic.
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}

	switch strings.ToLower(cfg.Proxy.Mode) {
	case "", "no-proxy":
		transport.Proxy = nil

	case "system":
		// Resolve from environment once so rules stay stable for the
		// lifetime of the client.
		proxyCfg := httpproxy.FromEnvironment()
		proxyFunc := proxyCfg.ProxyFunc()
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}

	case "ntlm":
		if cfg.Proxy.Host == "" {
			return nil, fmt.Errorf("proxy mode is ntlm but proxy host is not configured")
		}
		proxyURL := &url.URL{
			Scheme: "http",
			Host:   net.JoinHostPort(cfg.Proxy.Host, fmt.Sprintf("%d", cfg.Proxy.Port)),
		}
		if cfg.Proxy.Username != "" {
			proxyURL.User = url.UserPassword(cfg.Proxy.Username, cfg.Proxy.Password)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		// The negotiator wraps the transport to handle the NTLM
		// challenge round trips.
		return &http.Client{
			Transport: ntlmssp.Negotiator{RoundTripper: transport},
		}, nil

	default:
		return nil, fmt.Errorf("unknown proxy mode %q", cfg.Proxy.Mode)
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("failed to configure http2: %w", err)
	}

	return &http.Client{Transport: transport}, nil
}
