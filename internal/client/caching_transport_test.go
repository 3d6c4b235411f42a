package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCachingHTTPClient_ReusesFreshResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	t.Cleanup(srv.Close)

	for _, c := range map[string]*http.Client{
		"memory": NewInMemoryCachingHTTPClient(),
		"disk":   NewCachingHTTPClient(t.TempDir()),
	} {
		hits.Store(0)
		for range 3 {
			resp, err := c.Get(srv.URL + "/jwks")
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			require.JSONEq(t, `{"keys":[]}`, string(body))
		}
		require.Equal(t, int32(1), hits.Load())
	}
}

func TestCachingHTTPClient_Timeout(t *testing.T) {
	require.Equal(t, DefaultFetchTimeout, NewCachingHTTPClient("").Timeout)
}
