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

package docsnake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/agentberlin/docsnake/internal/store"
)

// Renderer drives a headless browser. One shared allocator backs all
// workers; each root gets its own browser context, created and torn
// down per Render call, because browser instances must not be shared
// across concurrent roots.
type Renderer struct {
	userAgent string
	timeout   time.Duration

	initOnce    sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewRenderer returns a renderer. The underlying browser allocator is
// created lazily on first use, so constructing a Renderer on a machine
// without Chrome is harmless as long as Render is never called.
func NewRenderer(userAgent string, timeout time.Duration) *Renderer {
	return &Renderer{userAgent: userAgent, timeout: timeout}
}

func (r *Renderer) init() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.userAgent),
	)
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Close releases the browser allocator.
func (r *Renderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

// Render loads a page, performs scrollSteps scroll iterations to
// trigger lazy-loaded navigation, and returns the HTML snapshot taken
// after each scroll. Snapshots rather than a single final capture:
// single-page apps sometimes replace footer DOM as the viewport moves.
func (r *Renderer) Render(ctx context.Context, url string, scrollSteps int) ([]string, error) {
	r.initOnce.Do(r.init)

	tabCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()
	tabCtx, cancel = context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	// Honor the caller's cancellation as well as the render timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()

	if scrollSteps < 1 {
		scrollSteps = 1
	}

	var snapshots []string
	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(1280, 1024, 1.0, false),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
	}
	for i := 0; i < scrollSteps; i++ {
		var html string
		idx := len(snapshots)
		snapshots = append(snapshots, "")
		tasks = append(tasks,
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
			chromedp.ActionFunc(func(ctx context.Context) error {
				snapshots[idx] = html
				return nil
			}),
			chromedp.Evaluate(`window.scrollBy(0, Math.ceil(window.innerHeight*0.9));`, nil),
			chromedp.Sleep(300*time.Millisecond),
		)
	}

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return snapshots, fmt.Errorf("headless render failed for %s: %w", url, err)
	}
	return snapshots, nil
}

// RenderStrategy escalates to a headless browser when static discovery
// found too little: single-page apps keep their footer legal links
// behind client-side rendering.
type RenderStrategy struct {
	renderer    *Renderer
	filter      *Filter
	scrollSteps int
	logger      *log.Logger
}

// NewRenderStrategy wires the render strategy.
func NewRenderStrategy(renderer *Renderer, filter *Filter, scrollSteps int, logger *log.Logger) *RenderStrategy {
	if logger == nil {
		logger = log.Default()
	}
	return &RenderStrategy{renderer: renderer, filter: filter, scrollSteps: scrollSteps, logger: logger}
}

// Name implements Strategy.
func (s *RenderStrategy) Name() string { return store.StrategyRender }

// Discover implements Strategy. A browser failure returns whatever was
// collected before it plus the error; the orchestrator falls through to
// the JS fallback.
func (s *RenderStrategy) Discover(ctx context.Context, root string, cap int) (Result, error) {
	root = strings.TrimSuffix(root, "/")
	host := hostOf(root)
	if host == "" {
		return Result{}, ErrBadScheme
	}

	snapshots, rerr := s.renderer.Render(ctx, root, s.scrollSteps)

	col := newCollector(cap)
	for _, html := range snapshots {
		if html == "" {
			continue
		}
		for _, href := range extractAnchors(html, root) {
			if s.filter.Keep(href, host) && !col.add(SanitizeURL(href)) {
				break
			}
		}
		if col.full() {
			break
		}
	}
	if rerr != nil && col.result().Count() == 0 {
		return col.result(), rerr
	}
	return col.result(), nil
}

// extractAnchors pulls a[href] values out of rendered HTML, resolving
// relative references against the page URL.
func extractAnchors(html, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		abs, err := urlParser.ParseRef(pageURL, href)
		if err != nil {
			return
		}
		out = append(out, abs.Href(true))
	})
	return out
}
