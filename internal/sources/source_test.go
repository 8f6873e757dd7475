package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/fetcher"
	"github.com/sells-group/mining-intel/internal/resilience"
	jinamocks "github.com/sells-group/mining-intel/pkg/jina/mocks"
)

func newTestHTTP() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: "mining-intel test@example.com",
		Timeout:   5 * time.Second,
		Retry:     resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond},
	})
}

// serve returns a server answering every request with body.
func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew(t *testing.T) {
	deps := Deps{HTTP: newTestHTTP(), Jina: jinamocks.NewMockClient(t)}

	tests := []struct {
		kind string
		want any
	}{
		{config.SourceEdgar, &EdgarFetcher{}},
		{config.SourceRSS, &RSSFetcher{}},
		{config.SourceListing, &ListingFetcher{}},
		{config.SourceSearch, &SearchFetcher{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			f, err := New(config.SourceConfig{Name: "src-" + tt.kind, Kind: tt.kind}, deps)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
			assert.Equal(t, "src-"+tt.kind, f.Name())
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(config.SourceConfig{Name: "x", Kind: "ftp"}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "ftp"`)

	_, err = New(config.SourceConfig{Name: "x", Kind: config.SourceRSS}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an http fetcher")

	_, err = New(config.SourceConfig{Name: "x", Kind: config.SourceSearch}, Deps{HTTP: newTestHTTP()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a jina client")
}

func TestNew_DefaultLimit(t *testing.T) {
	f, err := New(config.SourceConfig{Name: "feed", Kind: config.SourceRSS, URL: "https://x.example/feed"}, Deps{HTTP: newTestHTTP()})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, f.(*RSSFetcher).limit)
}

func TestBuild(t *testing.T) {
	deps := Deps{HTTP: newTestHTTP(), Jina: jinamocks.NewMockClient(t)}

	fetchers, err := Build(config.DefaultSources(), deps)
	require.NoError(t, err)
	require.Len(t, fetchers, 3)
	assert.Equal(t, "sec-edgar", fetchers[0].Name())
	assert.Equal(t, "mining-news", fetchers[1].Name())
	assert.Equal(t, "press-wire", fetchers[2].Name())

	_, err = Build([]config.SourceConfig{{Name: "bad", Kind: "nope"}}, deps)
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tue, 14 Jul 2026 09:30:00 +0000", "2026-07-14"},
		{"Tue, 14 Jul 2026 09:30:00 GMT", "2026-07-14"},
		{"2026-07-14T23:30:00-04:00", "2026-07-15"},
		{"2026-07-14", "2026-07-14"},
		{"July 14, 2026", "2026-07-14"},
		{"  ", ""},
		{"last week", "last week"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDate(tt.in), tt.in)
	}
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "Thacker Pass PEA", collapse("  Thacker\n\tPass   PEA "))
	assert.Empty(t, collapse(" \n "))
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := serve(t, "application/rss+xml", "<rss/>")
	f := NewRSSFetcher(config.SourceConfig{Name: "feed", URL: srv.URL, Limit: 5}, newTestHTTP())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "rss: fetch"))
}
