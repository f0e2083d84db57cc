package pow

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

// RequestTimeout bounds a single request to the issuing service.
const RequestTimeout = 30 * time.Second

// Doer executes HTTP requests.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// DoerFactory builds the Doer used for a single request. proxy is nil when
// requests go direct.
type DoerFactory func(proxy *url.URL) Doer

// NewHTTPClient returns a client for one request. When proxy is non-nil both
// http and https traffic go through it; otherwise no proxy is used, even if
// one is set in the environment.
func NewHTTPClient(proxy *url.URL) *http.Client {
	var proxyFunc func(*http.Request) (*url.URL, error)
	if proxy != nil {
		proxyFunc = http.ProxyURL(proxy)
	}

	tr := &http.Transport{
		Proxy: proxyFunc,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     true,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   RequestTimeout,
	}
}

func defaultDoerFactory(proxy *url.URL) Doer {
	return NewHTTPClient(proxy)
}

type idleCloser interface {
	CloseIdleConnections()
}

func release(d Doer) {
	if c, ok := d.(idleCloser); ok {
		c.CloseIdleConnections()
	}
}
