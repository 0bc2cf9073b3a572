// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil provides a fixture web property for discovery tests:
// a small site with robots.txt, a sitemap index, legal pages, and a few
// failure-mode endpoints.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"
)

// Fixture bodies shared across tests. Sitemap and robots bodies are
// templates; %s is the server base URL.
const (
	RobotsTemplate = `User-agent: *
Disallow: /account/
Sitemap: %s/sitemap_index.xml
`

	SitemapIndexTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap_legal.xml</loc></sitemap>
</sitemapindex>
`

	SitemapLegalTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/privacy</loc></url>
  <url><loc>%s/terms</loc></url>
  <url><loc>%s/cookie-policy</loc></url>
  <url><loc>%s/assets/logo.png</loc></url>
</urlset>
`

	IndexHTMLTemplate = `<!DOCTYPE html>
<html>
<head><title>Fixture Corp</title></head>
<body>
<p>Welcome.</p>
<footer>
<a href="%s/privacy">Privacy</a>
<a href="%s/terms">Terms of Service</a>
<a href="%s/blog/announcements">Blog</a>
</footer>
</body>
</html>
`

	PrivacyHTMLTemplate = `<!DOCTYPE html>
<html>
<head><title>Privacy Policy</title></head>
<body>
<h1>Privacy Policy</h1>
<a href="%s/privacy/children">Children's Privacy</a>
<a href="%s/cookie-policy">Cookies</a>
</body>
</html>
`
)

// NewUnstartedTestServer builds the fixture site without starting it.
func NewUnstartedTestServer() *httptest.Server {
	mux := http.NewServeMux()
	var srv *httptest.Server

	base := func() string { return srv.URL }

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, IndexHTMLTemplate, base(), base(), base())
	})

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, RobotsTemplate, base())
	})

	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, SitemapIndexTemplate, base())
	})

	mux.HandleFunc("/sitemap_legal.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, SitemapLegalTemplate, base(), base(), base(), base())
	})

	mux.HandleFunc("/privacy", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, PrivacyHTMLTemplate, base(), base())
	})

	legalPage := func(title string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, "<html><head><title>%s</title></head><body><h1>%s</h1></body></html>", title, title)
		}
	}
	mux.HandleFunc("/privacy/children", legalPage("Children's Privacy"))
	mux.HandleFunc("/terms", legalPage("Terms of Service"))
	mux.HandleFunc("/cookie-policy", legalPage("Cookie Policy"))
	mux.HandleFunc("/legal", legalPage("Legal"))

	mux.HandleFunc("/500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("<p>error</p>"))
	})

	// First request gets a 429, every later one a 200. Exercises the
	// fetcher's retry path.
	var flakyHits int64
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&flakyHits, 1) == 1 {
			w.WriteHeader(429)
			return
		}
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			w.Write([]byte("finally"))
		}
	})

	mux.HandleFunc("/user_agent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	})

	srv = httptest.NewUnstartedServer(mux)
	return srv
}

// NewTestServer starts the fixture site.
func NewTestServer() *httptest.Server {
	srv := NewUnstartedTestServer()
	srv.Start()
	return srv
}
