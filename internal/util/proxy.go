package util

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
// noProxy follows the NO_PROXY syntax (comma-separated hosts, domains, CIDRs).
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	proxyFunc := (&httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}
}

// ClientOptions configures NewHTTPClient
type ClientOptions struct {
	Timeout     time.Duration
	InsecureTLS bool
	HTTPProxy   string
	HTTPSProxy  string
	NoProxy     string
	// MaxRedirects caps redirect chains; 0 keeps the net/http default of 10
	MaxRedirects int
}

// NewHTTPClient builds the outbound client shared by the fetcher, search
// providers and classifiers.
func NewHTTPClient(opts ClientOptions) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}

	if opts.MaxRedirects > 0 {
		limit := opts.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return http.ErrUseLastResponse
			}
			return nil
		}
	}

	return client
}
