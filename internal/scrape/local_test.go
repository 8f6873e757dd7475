package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, contentType, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

var articleHTML = `<html><head><title>Ioneer Updates Rhyolite Ridge</title><style>p{color:red}</style></head>
<body><nav>Home | Markets | Menu</nav>
<article><h1>Rhyolite Ridge Update</h1>
<p>` + strings.Repeat("Ioneer reported an after-tax NPV of US$1,265 million for the lithium-boron project. ", 4) + `</p>
<ul><li>IRR 20.8%</li><li>Capex US$785 million</li></ul></article>
<footer>Copyright 2026</footer><script>track()</script></body></html>`

func TestLocalScraper_Article(t *testing.T) {
	url := serve(t, 200, "text/html; charset=utf-8", articleHTML)

	result, err := NewLocalScraper("").Scrape(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "local_http", result.Source)
	assert.Equal(t, "Ioneer Updates Rhyolite Ridge", result.Page.Title)
	assert.Equal(t, 200, result.Page.StatusCode)
	assert.Contains(t, result.Page.Markdown, "# Rhyolite Ridge Update")
	assert.Contains(t, result.Page.Markdown, "IRR 20.8%")
	assert.NotContains(t, result.Page.Markdown, "Menu")
	assert.NotContains(t, result.Page.Markdown, "Copyright 2026")
	assert.NotContains(t, result.Page.Markdown, "track()")
}

func TestLocalScraper_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantErr     string
	}{
		{"cloudflare", 403, "text/html", `<html><body>Checking your browser</body></html>`, "blocked"},
		{"captcha", 200, "text/html", `<html><body><div class="g-recaptcha"></div></body></html>`, "blocked"},
		{"not found", 404, "text/html", `<html><body>` + strings.Repeat("Not found. ", 40) + `</body></html>`, "status 404"},
		{"pdf", 200, "application/pdf", "%PDF-1.7 " + strings.Repeat("x", 400), "unsupported content type"},
		{"empty", 200, "text/html", `<html><body><p>Hi</p></body></html>`, "empty page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := serve(t, tt.status, tt.contentType, tt.body)
			_, err := NewLocalScraper("").Scrape(context.Background(), url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocalScraper_UserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	_, err := NewLocalScraper("mining-intel/1.0 ops@example.com").Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "mining-intel/1.0 ops@example.com", got)
}

func TestHTMLToMarkdown_FallsBackToBody(t *testing.T) {
	title, markdown, err := htmlToMarkdown([]byte(`<html><body><h2>Results</h2><p>Drill hole LR-01 returned 1.4% Li2O.</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Contains(t, markdown, "## Results")
	assert.Contains(t, markdown, "1.4% Li2O")
}
