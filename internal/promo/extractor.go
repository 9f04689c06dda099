package promo

import (
	"context"
	"fmt"
	"strings"

	"github.com/buzzboard/internal/llm"
)

const (
	// Scraped text is capped again before prompting; page text itself is
	// already bounded by the fetcher, but operator-supplied context can
	// push past it.
	maxExtractionInput = 10000

	fallbackProductName  = "このページの注目商品"
	fallbackSellingPoint = "ページで紹介されている目玉商品・キャンペーンです。"
)

// Extractor turns scraped page text into a fixed product-attribute record via
// a JSON-mode completion.
type Extractor struct {
	client llm.Client
}

func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract prompts the model for a strict-JSON product record. Parse failures
// come back as errors; the caller decides what a failed extraction means for
// its queue item. Every field is coerced to a string and defaulted.
func (e *Extractor) Extract(ctx context.Context, pageText string, image *llm.ImagePart) (Product, error) {
	if len([]rune(pageText)) > maxExtractionInput {
		pageText = string([]rune(pageText)[:maxExtractionInput])
	}

	raw, err := e.client.GenerateJSON(ctx, llm.Request{
		Prompt:            extractionPrompt(pageText),
		SystemInstruction: extractionSystemInstruction,
		Image:             image,
	})
	if err != nil {
		return Product{}, fmt.Errorf("extraction call failed: %w", err)
	}

	// The model may emit numbers where strings were asked for.
	var loose map[string]interface{}
	if err := llm.ParseModelJSON(raw, &loose); err != nil {
		return Product{}, fmt.Errorf("extraction response unparsable: %w", err)
	}

	p := Product{
		Name:         stringField(loose, "product_name"),
		Manufacturer: stringField(loose, "manufacturer"),
		ModelNumber:  stringField(loose, "model_number"),
		Price:        stringField(loose, "price"),
		SellingPoint: stringField(loose, "selling_point"),
		KeySpecs:     stringField(loose, "key_specs"),
	}

	if p.Name == "" {
		p.Name = fallbackProductName
	}
	if p.SellingPoint == "" {
		p.SellingPoint = fallbackSellingPoint
	}

	return p, nil
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Info renders the product record as the plain-text block handed to the
// conversation generator. Operator-supplied extra context ranks first.
func (p Product) Info(sourceURL, extra string) string {
	var lines []string
	if extra = strings.TrimSpace(extra); extra != "" {
		lines = append(lines, extra)
	}
	lines = append(lines, "商品/キャンペーン名: "+p.Name)
	if p.Manufacturer != "" {
		lines = append(lines, "メーカー: "+p.Manufacturer)
	}
	if p.ModelNumber != "" {
		lines = append(lines, "型番: "+p.ModelNumber)
	}
	if p.Price != "" {
		lines = append(lines, "価格: "+p.Price)
	}
	lines = append(lines, "推しポイント: "+p.SellingPoint)
	if p.KeySpecs != "" {
		lines = append(lines, "主要スペック: "+p.KeySpecs)
	}
	if sourceURL != "" {
		lines = append(lines, "参照URL: "+sourceURL)
	}
	return strings.Join(lines, "\n")
}

// KeyFeatures renders the record as the free-text summary stored on the
// thread for reuse as LLM context in later extension calls.
func (p Product) KeyFeatures() string {
	lines := []string{"【抽出された商品情報】", "- 商品/キャンペーン名: " + p.Name}
	if p.Manufacturer != "" {
		lines = append(lines, "- メーカー: "+p.Manufacturer)
	}
	if p.ModelNumber != "" {
		lines = append(lines, "- 型番: "+p.ModelNumber)
	}
	if p.Price != "" {
		lines = append(lines, "- 価格: "+p.Price)
	}
	lines = append(lines, "- 推しポイント: "+p.SellingPoint)
	if p.KeySpecs != "" {
		lines = append(lines, "- 主要スペック: "+p.KeySpecs)
	}
	return strings.Join(lines, "\n")
}
