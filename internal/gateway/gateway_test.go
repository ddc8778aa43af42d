package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = `{
  "status": "ok",
  "totalResults": 4,
  "articles": [
    {"source": {"name": "Wire"}, "title": "A", "url": "https://a.example"},
    {"source": {"name": "Wire"}, "title": "[Removed]"},
    {"source": {"name": "Wire"}, "title": ""},
    {"source": {"name": "Wire"}, "title": "B", "url": "https://b.example"}
  ]
}`

type recorder struct {
	hits  atomic.Int32
	query atomic.Value
	path  atomic.Value
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.hits.Add(1)
		rec.query.Store(r.URL.Query())
		rec.path.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func titles(articles []news.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func TestFetchProxyFiltersWorkingSet(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, feedBody)
	c := New(Options{Mode: ModeProxy, Endpoint: srv.URL + "/api/news"})

	got, err := c.Fetch(context.Background(), news.Technology)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles(got))

	assert.EqualValues(t, 1, rec.hits.Load())
	assert.Equal(t, "/api/news", rec.path.Load())
	q := rec.query.Load().(url.Values)
	assert.Equal(t, []string{"technology"}, q["category"])
	assert.NotContains(t, q, "apiKey", "proxy mode must never send a credential")
}

func TestFetchDirectBuildsProviderRequest(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, feedBody)
	c := New(Options{Mode: ModeDirect, Endpoint: srv.URL, APIKey: "secret"})

	_, err := c.Fetch(context.Background(), news.Sports)
	require.NoError(t, err)

	assert.Equal(t, "/v2/top-headlines", rec.path.Load())
	q := rec.query.Load().(url.Values)
	assert.Equal(t, []string{"us"}, q["country"])
	assert.Equal(t, []string{"sports"}, q["category"])
	assert.Equal(t, []string{"secret"}, q["apiKey"])
}

func TestFetchDirectMissingKeyMakesNoRequest(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, feedBody)
	c := New(Options{Mode: ModeDirect, Endpoint: srv.URL})

	_, err := c.Fetch(context.Background(), news.General)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfig), "expected config error, got %v", err)
	assert.Equal(t, MissingKeyMessage, err.Error())
	assert.EqualValues(t, 0, rec.hits.Load())

	_, err = c.Relay(context.Background(), news.General)
	assert.True(t, IsKind(err, KindConfig))
	assert.EqualValues(t, 0, rec.hits.Load())
}

func TestFetchProviderError(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"status":"error","code":"rateLimited","message":"You have made too many requests."}`)
	c := New(Options{Endpoint: srv.URL})

	_, err := c.Fetch(context.Background(), news.General)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProvider))
	assert.Equal(t, "You have made too many requests.", err.Error())
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`)
	c := New(Options{Endpoint: srv.URL})

	_, err := c.Fetch(context.Background(), news.General)
	require.Error(t, err)

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindProtocol, ge.Kind)
	assert.Equal(t, http.StatusUnauthorized, ge.Status)
	assert.Equal(t, "HTTP 401: Your API key is invalid.", err.Error())
}

func TestFetchNonJSONErrorBody(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusBadGateway, "<html>\n  upstream   down\n</html>")
	c := New(Options{Endpoint: srv.URL})

	_, err := c.Fetch(context.Background(), news.General)
	require.Error(t, err)
	assert.Equal(t, "HTTP 502: <html> upstream down </html>", err.Error())
}

func TestFetchMalformedBody(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "not json")
	c := New(Options{Endpoint: srv.URL})

	_, err := c.Fetch(context.Background(), news.General)
	assert.True(t, IsKind(err, KindProtocol))
}

func TestFetchTransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c := New(Options{Mode: ModeDirect, Endpoint: endpoint, APIKey: "topsecret"})
	_, err := c.Fetch(context.Background(), news.General)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.False(t, strings.Contains(err.Error(), "topsecret"), "error leaks key: %v", err)
}

func TestFetchTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := New(Options{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Fetch(context.Background(), news.General)
	assert.True(t, IsKind(err, KindTransport), "expected transport error, got %v", err)
}

func TestFetchCancelled(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, feedBody)
	c := New(Options{Endpoint: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, news.General)
	assert.True(t, IsKind(err, KindTransport))
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, rec.hits.Load())
}

func TestRelayPassesThroughErrorStatus(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusTooManyRequests, `{"status":"error","message":"slow down"}`)
	c := New(Options{Mode: ModeDirect, Endpoint: srv.URL, APIKey: "k"})

	r, err := c.Relay(context.Background(), news.Health)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, r.Status)
	assert.Equal(t, "application/json; charset=utf-8", r.ContentType)
	assert.JSONEq(t, `{"status":"error","message":"slow down"}`, string(r.Body))
}

func TestNoEndpointIsConfigError(t *testing.T) {
	c := New(Options{Mode: ModeProxy})
	_, err := c.Fetch(context.Background(), news.General)
	assert.True(t, IsKind(err, KindConfig))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "config", KindConfig.String())
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "protocol", KindProtocol.String())
	assert.Equal(t, "provider", KindProvider.String())
}
