package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// EC-site boilerplate stripped off page titles before they are shown to the
// operator as a queue-item suggestion.
var (
	titlePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`^【楽天市場】\s*`),
		regexp.MustCompile(`^【楽天】\s*`),
		regexp.MustCompile(`(?i)^楽天市場\s*-\s*`),
		regexp.MustCompile(`(?i)^Amazon \|\s*`),
		regexp.MustCompile(`(?i)^Amazon\.co\.jp：\s*`),
		regexp.MustCompile(`(?i)^Yahoo!ショッピング\s*-\s*`),
		regexp.MustCompile(`(?i)^Yahoo!ショッピング：\s*`),
		regexp.MustCompile(`^【ヤフオク!】\s*`),
	}
	titleSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`\s*-\s*楽天市場$`),
		regexp.MustCompile(`\s*-\s*楽天$`),
		regexp.MustCompile(`(?i)\s*\|\s*Amazon\.co\.jp$`),
		regexp.MustCompile(`(?i)\s*-\s*Yahoo!ショッピング$`),
	}
)

// CleanTitle strips the EC-site prefixes and suffixes from a raw page title.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	for _, re := range titlePrefixes {
		title = re.ReplaceAllString(title, "")
	}
	for _, re := range titleSuffixes {
		title = re.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

// ResolveTarget unwraps Rakuten affiliate links, whose real destination rides
// in the pc query parameter. Any other URL passes through unchanged.
func ResolveTarget(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	if parsed.Hostname() == "hb.afl.rakuten.co.jp" {
		if pc := parsed.Query().Get("pc"); pc != "" {
			return pc
		}
	}
	return strings.TrimSpace(raw)
}

// FetchTitle retrieves just the cleaned page title for an operator-supplied
// URL, unwrapping affiliate links first.
func (f *Fetcher) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	page, err := f.Fetch(ctx, ResolveTarget(rawURL))
	if err != nil {
		return "", err
	}
	if page.Title == "" {
		return "", fmt.Errorf("no title found at %s", rawURL)
	}
	return CleanTitle(page.Title), nil
}
