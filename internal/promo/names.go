package promo

import (
	"fmt"
	"math/rand"
	"sync"
)

// Pseudonym parts. Three patterns get mixed so the board doesn't look like it
// was filled by one naming scheme: Japanese handle, lowercase English id with
// digits, and a bare noun with a decorator.
var (
	jpAdjectives = []string{
		"眠い", "腹ペコ", "限界", "謎の", "通りすがりの", "深夜の", "無職の", "匿名の",
		"暇な", "常連の", "新参の", "熱烈な", "冷静な", "適当な", "本気の", "うっかり",
		"今日も", "明日も", "永遠の", "刹那の", "伝説の", "ただの",
	}
	jpNouns = []string{
		"猫", "OL", "おじさん", "学生", "エンジニア", "主婦", "名無し", "浪人",
		"ニート", "オタク", "ガジェッター", "社会人", "大学生", "高校生", "主夫",
		"フリーター", "プログラマー", "デザイナー", "パパ", "ママ",
		"一般人", "常連", "新規", "通りすがり", "暇人",
	}
	enAdjectives = []string{
		"happy", "lazy", "super", "yellow", "cool", "dark", "silent", "quick",
		"tiny", "wild", "calm", "bored", "chill", "random", "real", "true",
		"sleepy", "hungry", "anonymous", "mystery",
	}
	enNouns = []string{
		"dog", "cat", "user", "taro", "hanako", "papa", "mama", "dev", "geek",
		"guy", "gal", "kid", "dad", "mom", "anon", "guest", "visitor",
		"reader", "writer", "coder", "gamer", "otaku",
	}
	decorators = []string{
		"123", "007", "_jp", "w", "（仮）", "2026", "!!", "_sub", "...", "",
		"さん", "氏", "ちゃん", "2nd", "v2", "01", "99", "（二度目）",
	}
)

func pick[T any](r *rand.Rand, arr []T) T {
	return arr[r.Intn(len(arr))]
}

// NameGenerator produces display pseudonyms for generated speakers. Purely a
// display randomizer; no authentication or security meaning.
type NameGenerator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewNameGenerator creates a generator seeded from the given source. A nil
// source seeds from the global source.
func NewNameGenerator(r *rand.Rand) *NameGenerator {
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63()))
	}
	return &NameGenerator{rand: r}
}

// Random generates one SNS-style user name independent of any product
// context.
func (g *NameGenerator) Random() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.rand
	switch r.Intn(3) {
	case 0:
		return pick(r, jpAdjectives) + pick(r, jpNouns) + pick(r, decorators)
	case 1:
		return fmt.Sprintf("%s_%s%03d", pick(r, enAdjectives), pick(r, enNouns), r.Intn(1000))
	default:
		return pick(r, jpNouns) + pick(r, decorators)
	}
}

// Unique generates up to count distinct names. The accumulation loop is
// bounded at count*50 attempts; on exhaustion the result may be shorter than
// requested and callers fall back to Random per missing slot.
func (g *NameGenerator) Unique(count int) []string {
	if count <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, count)
	names := make([]string, 0, count)
	maxAttempts := count * 50

	for attempts := 0; len(names) < count && attempts < maxAttempts; attempts++ {
		name := g.Random()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names
}
