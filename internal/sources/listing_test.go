package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mining-intel/internal/config"
)

const listingHTML = `<html><body>
<ul class="releases">
  <li class="release">
    <h3 class="headline">Positive Feasibility Study for Rhyolite Ridge</h3>
    <a href="/news/rhyolite-fs#top">Read more</a>
    <time datetime="2026-07-01">July 1, 2026</time>
  </li>
  <li class="release">
    <a href="https://cdn.example.com/pr/q2-drill.html">Q2 drill results</a>
    <span class="date">June 28, 2026</span>
  </li>
  <li class="release"><a href="/news/rhyolite-fs">Again</a></li>
  <li class="release"><a href="mailto:ir@example.com">Contact</a></li>
  <li class="release"><span>no link</span></li>
</ul>
</body></html>`

func listingConfig(url string, limit int) config.SourceConfig {
	return config.SourceConfig{
		Name:          "ioneer-ir",
		Kind:          config.SourceListing,
		URL:           url + "/investors/press",
		ItemSelector:  "li.release",
		TitleSelector: ".headline",
		DateSelector:  "time, .date",
		Limit:         limit,
	}
}

func TestListingFetcher_Fetch(t *testing.T) {
	srv := serve(t, "text/html", listingHTML)
	f := NewListingFetcher(listingConfig(srv.URL, 10), newTestHTTP())

	docs, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, srv.URL+"/news/rhyolite-fs", docs[0].URL)
	assert.Equal(t, "Positive Feasibility Study for Rhyolite Ridge", docs[0].Title)
	assert.Equal(t, "2026-07-01", docs[0].Date)
	assert.Equal(t, TypePressRelease, docs[0].Type)
	assert.Equal(t, "ioneer-ir", docs[0].SourceName)

	assert.Equal(t, "https://cdn.example.com/pr/q2-drill.html", docs[1].URL)
	assert.Equal(t, "Q2 drill results", docs[1].Title)
	assert.Equal(t, "2026-06-28", docs[1].Date)
}

func TestListingFetcher_Limit(t *testing.T) {
	srv := serve(t, "text/html", listingHTML)
	f := NewListingFetcher(listingConfig(srv.URL, 1), newTestHTTP())

	docs, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListingFetcher_AnchorItems(t *testing.T) {
	srv := serve(t, "text/html", `<div><a class="pr" href="a.html">First</a><a class="pr" href="b.html">Second</a></div>`)
	f := NewListingFetcher(config.SourceConfig{Name: "wire", URL: srv.URL + "/list/", ItemSelector: "a.pr", Limit: 5}, newTestHTTP())

	docs, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, srv.URL+"/list/a.html", docs[0].URL)
	assert.Equal(t, "Second", docs[1].Title)
}

func TestListingFetcher_BadURL(t *testing.T) {
	f := NewListingFetcher(config.SourceConfig{Name: "bad", URL: "://nope", ItemSelector: "li"}, newTestHTTP())
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing: parse url")
}
