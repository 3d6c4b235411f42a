package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// DefaultFetchTimeout bounds a single discovery or JWKS fetch.
const DefaultFetchTimeout = 10 * time.Second

// NewCachingHTTPClient returns the client the OIDC verifier uses to fetch
// discovery documents and JWKS. Identity providers serve both with
// Cache-Control headers, so responses are reused until they go stale.
// A non-empty cacheDir keeps them on disk across restarts.
func NewCachingHTTPClient(cacheDir string) *http.Client {
	if cacheDir == "" {
		return NewInMemoryCachingHTTPClient()
	}
	return newCachingClient(diskcache.New(cacheDir))
}

// NewInMemoryCachingHTTPClient is NewCachingHTTPClient without persistence.
func NewInMemoryCachingHTTPClient() *http.Client {
	return newCachingClient(httpcache.NewMemoryCache())
}

func newCachingClient(cache httpcache.Cache) *http.Client {
	return &http.Client{
		Transport: httpcache.NewTransport(cache),
		Timeout:   DefaultFetchTimeout,
	}
}
