package promo

import (
	"math/rand"
	"strings"
)

var titleTags = []string{"【急げ】", "【話題】", "【朗報】", "【速報】"}

// FallbackTitle builds a deterministic-template thread title when the
// title-generation call fails. Template choice depends on whether a price was
// extracted; the bracketed tag is picked at random.
func FallbackTitle(p Product) string {
	tag := titleTags[rand.Intn(len(titleTags))]

	name := p.Name
	if p.Manufacturer != "" && !strings.Contains(name, p.Manufacturer) {
		name = p.Manufacturer + " " + name
	}

	if p.Price != "" {
		return tag + name + " が " + p.Price + " になってるんだがｗ"
	}
	return tag + name + " がアツすぎる件"
}
