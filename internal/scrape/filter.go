package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludedHosts never carry project disclosures worth extracting.
var defaultExcludedHosts = []string{
	"youtube.com",
	"youtu.be",
	"twitter.com",
	"x.com",
	"facebook.com",
	"instagram.com",
	"tiktok.com",
	"linkedin.com",
	"reddit.com",
}

// defaultExcludedPaths skip navigation and media pages on news sites.
var defaultExcludedPaths = []string{
	"/careers/*",
	"/jobs/*",
	"/login*",
	"/subscribe*",
	"/tag/*",
	"/*.mp3",
	"/*.mp4",
	"/*.zip",
}

// URLFilter rejects URLs by host suffix or glob-style path pattern. A
// pattern like "/tag/*" also matches nested paths such as "/tag/a/b".
type URLFilter struct {
	hosts    []string
	patterns []string
}

// NewURLFilter creates a URLFilter. Nil slices select the defaults; empty
// non-nil slices disable that kind of matching.
func NewURLFilter(hosts, patterns []string) *URLFilter {
	if hosts == nil {
		hosts = defaultExcludedHosts
	}
	if patterns == nil {
		patterns = defaultExcludedPaths
	}
	return &URLFilter{hosts: hosts, patterns: patterns}
}

// IsExcluded reports whether a URL should not be scraped. Unparseable and
// non-HTTP URLs are excluded.
func (f *URLFilter) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range f.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}

	p := strings.ToLower(u.Path)
	for _, pattern := range f.patterns {
		if matchSegmented(strings.ToLower(pattern), p) {
			return true
		}
	}
	return false
}

// matchSegmented tries path.Match first, then treats a trailing "/*" as a
// directory prefix.
func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	return false
}
