package promo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hasTitleTag(title string) bool {
	for _, tag := range titleTags {
		if strings.HasPrefix(title, tag) {
			return true
		}
	}
	return false
}

func TestFallbackTitle_WithPrice(t *testing.T) {
	title := FallbackTitle(Product{Name: "加湿器X", Price: "2,980円"})
	assert.True(t, hasTitleTag(title), "missing bracket tag: %q", title)
	assert.Contains(t, title, "加湿器X")
	assert.Contains(t, title, "2,980円")
	assert.Contains(t, title, "になってるんだが")
}

func TestFallbackTitle_WithoutPrice(t *testing.T) {
	title := FallbackTitle(Product{Name: "加湿器X", Manufacturer: "アイリス"})
	assert.True(t, hasTitleTag(title), "missing bracket tag: %q", title)
	assert.Contains(t, title, "アイリス 加湿器X")
	assert.Contains(t, title, "がアツすぎる件")
}

func TestFallbackTitle_ManufacturerAlreadyInName(t *testing.T) {
	title := FallbackTitle(Product{Name: "アイリス 加湿器X", Manufacturer: "アイリス"})
	assert.Equal(t, 1, strings.Count(title, "アイリス"))
}
