package promo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzboard/internal/llm"
)

func TestExtractor_Extract(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return "```json\n" + `{
				"product_name": "サイクロン掃除機 VX-12",
				"manufacturer": "ダイソン",
				"model_number": "VX-12",
				"price": 29800,
				"selling_point": "吸引力が落ちない",
				"key_specs": "600W / 0.8kg"
			}` + "\n```", nil
		},
	}
	e := NewExtractor(client)

	p, err := e.Extract(context.Background(), "ページ本文", nil)
	require.NoError(t, err)
	assert.Equal(t, "サイクロン掃除機 VX-12", p.Name)
	assert.Equal(t, "ダイソン", p.Manufacturer)
	// Numeric prices are coerced to strings.
	assert.Equal(t, "29800", p.Price)
	assert.Equal(t, "吸引力が落ちない", p.SellingPoint)
}

func TestExtractor_ExtractDefaultsMissingFields(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return `{"manufacturer": "無印"}`, nil
		},
	}
	e := NewExtractor(client)

	p, err := e.Extract(context.Background(), "ページ本文", nil)
	require.NoError(t, err)
	assert.Equal(t, fallbackProductName, p.Name)
	assert.Equal(t, fallbackSellingPoint, p.SellingPoint)
	assert.Equal(t, "無印", p.Manufacturer)
	assert.Empty(t, p.Price)
}

func TestExtractor_ExtractUnparsableResponse(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return "すみません、抽出できませんでした。", nil
		},
	}
	e := NewExtractor(client)

	_, err := e.Extract(context.Background(), "ページ本文", nil)
	assert.Error(t, err)
}

func TestExtractor_ExtractCallError(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	e := NewExtractor(client)

	_, err := e.Extract(context.Background(), "ページ本文", nil)
	assert.Error(t, err)
}

func TestProduct_Info(t *testing.T) {
	p := Product{
		Name:         "加湿器X",
		Manufacturer: "アイリス",
		Price:        "2,980円",
		SellingPoint: "静音",
	}

	info := p.Info("https://example.com/item", "期間限定セール対象")
	lines := []string{
		"期間限定セール対象",
		"商品/キャンペーン名: 加湿器X",
		"メーカー: アイリス",
		"価格: 2,980円",
		"推しポイント: 静音",
		"参照URL: https://example.com/item",
	}
	for _, line := range lines {
		assert.Contains(t, info, line)
	}
	// Extra context ranks first.
	assert.True(t, strings.HasPrefix(info, "期間限定セール対象"))
	assert.NotContains(t, info, "型番")
}

func TestProduct_KeyFeatures(t *testing.T) {
	p := Product{Name: "加湿器X", SellingPoint: "静音", KeySpecs: "4L"}

	features := p.KeyFeatures()
	assert.Contains(t, features, "【抽出された商品情報】")
	assert.Contains(t, features, "- 商品/キャンペーン名: 加湿器X")
	assert.Contains(t, features, "- 主要スペック: 4L")
	assert.NotContains(t, features, "メーカー")
}
