package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const rakutenSearchEndpoint = "https://openapi.rakuten.co.jp/ichibams/api/IchibaItem/Search/20220601"

var rakutenItemURLPattern = regexp.MustCompile(`item\.rakuten\.co\.jp/([^/]+)/([^/?#]+)`)

// RakutenClient enriches Rakuten product URLs with item details from the
// Ichiba search API, matched exactly by itemCode rather than keyword. An
// unconfigured client is valid and returns nothing.
type RakutenClient struct {
	appID     string
	accessKey string
	endpoint  string
	client    *http.Client
}

func NewRakutenClient(appID, accessKey string) *RakutenClient {
	return &RakutenClient{
		appID:     appID,
		accessKey: accessKey,
		endpoint:  rakutenSearchEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *RakutenClient) Enabled() bool {
	return r.appID != "" && r.accessKey != ""
}

type rakutenSearchResponse struct {
	Items []struct {
		Item struct {
			ItemName    string `json:"itemName"`
			Catchcopy   string `json:"catchcopy"`
			ItemCaption string `json:"itemCaption"`
			ItemPrice   *int   `json:"itemPrice"`
		} `json:"Item"`
	} `json:"Items"`
}

// ItemDetails resolves the URL to a Rakuten item and returns its name,
// catch copy, caption and price joined as supplemental product text. Every
// failure is soft: enrichment is optional, so the result is "" and a log
// line, never an error.
func (r *RakutenClient) ItemDetails(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !r.Enabled() {
		log.Warn().Msg("rakuten app id or access key not configured, skipping enrichment")
		return ""
	}

	canonical := r.resolveCanonical(ctx, rawURL)
	match := rakutenItemURLPattern.FindStringSubmatch(canonical)
	if match == nil {
		return ""
	}
	itemCode := match[1] + ":" + match[2]

	params := url.Values{}
	params.Set("format", "json")
	params.Set("itemCode", itemCode)
	params.Set("applicationId", r.appID)
	params.Set("accessKey", r.accessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("item_code", itemCode).Msg("rakuten item lookup failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("item_code", itemCode).Msg("rakuten api error")
		return ""
	}

	var payload rakutenSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("rakuten api response undecodable")
		return ""
	}
	if len(payload.Items) == 0 {
		return ""
	}

	item := payload.Items[0].Item
	var parts []string
	if item.ItemName != "" {
		parts = append(parts, item.ItemName)
	}
	if item.Catchcopy != "" {
		parts = append(parts, item.Catchcopy)
	}
	if item.ItemCaption != "" {
		parts = append(parts, item.ItemCaption)
	}
	if item.ItemPrice != nil {
		parts = append(parts, fmt.Sprintf("価格: %d円", *item.ItemPrice))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// resolveCanonical unwraps affiliate links or, failing that, follows
// redirects to find the real item URL.
func (r *RakutenClient) resolveCanonical(ctx context.Context, rawURL string) string {
	if target := ResolveTarget(rawURL); target != rawURL {
		return target
	}
	if rakutenItemURLPattern.MatchString(rawURL) {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return rawURL
	}
	resp.Body.Close()
	return resp.Request.URL.String()
}
