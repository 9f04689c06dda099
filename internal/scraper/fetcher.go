package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	acceptLanguage   = "ja,en-US;q=0.9,en;q=0.8"

	// Page text gets truncated before it reaches any prompt.
	maxPageText = 8000

	// Below this, the targeted selectors missed and the whole body is
	// swept in as well.
	minContentLength = 200
)

// Elements stripped before text extraction. Aside from structural chrome,
// class-pattern selectors catch the usual ad and social-share widgets that
// pollute EC pages.
const denylistSelector = `script, style, nav, header, footer, iframe, noscript, aside,
	[class*="advert"], [class*="banner"], [class*="social"], [class*="share-"],
	[class*="cookie"], [id*="cookie"]`

// Selectors likely to hold the actual product copy, checked before falling
// back to the whole body.
var contentSelectors = []string{
	`[class*="product-desc"]`,
	`[class*="item-desc"]`,
	`[id*="description"]`,
	`[class*="product-detail"]`,
	`[itemprop="description"]`,
}

// Page is the scraped result handed to extraction.
type Page struct {
	Title   string
	Text    string
	OGImage string
}

// Fetcher retrieves product pages with browser-like headers. Large EC sites
// reject requests without them.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET and distills the page into plain text, preferring
// the meta description and product-copy containers over raw body text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	page := &Page{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		OGImage: doc.Find(`meta[property="og:image"]`).AttrOr("content", ""),
	}

	doc.Find(denylistSelector).Remove()

	var parts []string
	if desc := doc.Find(`meta[name="description"]`).AttrOr("content", ""); strings.TrimSpace(desc) != "" {
		parts = append(parts, collapseWhitespace(desc))
	}
	for _, sel := range contentSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := collapseWhitespace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
	}

	text := strings.Join(parts, "\n\n")
	if len([]rune(text)) < minContentLength {
		if body := collapseWhitespace(doc.Find("body").Text()); body != "" {
			parts = append(parts, body)
			text = strings.Join(parts, "\n\n")
		}
	}

	if runes := []rune(text); len(runes) > maxPageText {
		text = string(runes[:maxPageText]) + "..."
	}
	page.Text = text

	log.Debug().
		Str("url", url).
		Int("text_len", len([]rune(page.Text))).
		Bool("og_image", page.OGImage != "").
		Msg("page scraped")

	return page, nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
