package promo

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzboard/internal/llm"
)

// stubClient scripts Generate/GenerateJSON responses per test. Shared by the
// extractor and hype tests in this package.
type stubClient struct {
	generate     func(ctx context.Context, req llm.Request) (string, error)
	generateJSON func(ctx context.Context, req llm.Request) (string, error)
}

func (s *stubClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	return s.generate(ctx, req)
}

func (s *stubClient) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	return s.generateJSON(ctx, req)
}

func newTestGenerator(client llm.Client) *Generator {
	g := NewGenerator(client, NewNameGenerator(rand.New(rand.NewSource(7))))
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }
	return g
}

func commentsJSON(contents ...string) string {
	out := `{"comments":[`
	for i, c := range contents {
		if i > 0 {
			out += ","
		}
		out += `{"speaker_name":"model-name-` + string(rune('a'+i)) + `","speaker_attribute":"金欠学生","content":"` + c + `"}`
	}
	return out + `]}`
}

func TestGenerator_Stream(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return commentsJSON("マジか", "これ神", ""), nil
		},
	}
	g := newTestGenerator(client)

	turns, err := g.Stream(context.Background(), nil, "商品/キャンペーン名: 加湿器", nil)
	require.NoError(t, err)

	// The empty comment is dropped; model names are kept as-is.
	require.Len(t, turns, 2)
	assert.Equal(t, "model-name-a", turns[0].SpeakerName)
	assert.Equal(t, "マジか", turns[0].Content)
	assert.NotEmpty(t, turns[0].ID)
}

func TestGenerator_StreamTimestampsIncrease(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return commentsJSON("一言目", "二言目", "三言目"), nil
		},
	}
	g := newTestGenerator(client)

	turns, err := g.Stream(context.Background(), nil, "", nil)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	for i := 1; i < len(turns); i++ {
		assert.True(t, turns[i].Timestamp.After(turns[i-1].Timestamp),
			"turn %d timestamp not after turn %d", i, i-1)
	}
}

func TestGenerator_AppendCapsAndRenames(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return commentsJSON("一", "二", "三", "四", "五"), nil
		},
	}
	g := newTestGenerator(client)

	turns, err := g.Append(context.Background(), nil, "", nil)
	require.NoError(t, err)
	require.Len(t, turns, maxAppendTurns)

	seen := make(map[string]struct{})
	for _, turn := range turns {
		assert.NotContains(t, turn.SpeakerName, "model-name")
		_, dup := seen[turn.SpeakerName]
		assert.False(t, dup, "duplicate renamed speaker %q", turn.SpeakerName)
		seen[turn.SpeakerName] = struct{}{}
	}
}

func TestGenerator_ContinuationCaps(t *testing.T) {
	many := make([]string, 14)
	for i := range many {
		many[i] = "レス"
	}
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return commentsJSON(many...), nil
		},
	}
	g := newTestGenerator(client)

	turns, err := g.Continuation(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Len(t, turns, maxContinuationTurns)
}

func TestGenerator_InitialAccumulatesToExactlyTen(t *testing.T) {
	calls := 0
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			calls++
			return commentsJSON("一", "二", "三"), nil
		},
	}
	g := newTestGenerator(client)

	turns, err := g.Initial(context.Background(), "商品情報", nil)
	require.NoError(t, err)

	// Batches of 3 accumulate to 12 after 4 calls, then truncate to 10.
	assert.Equal(t, 4, calls)
	assert.Len(t, turns, initialTurnTarget)
}

func TestGenerator_InitialTimestampsMonotonicAcrossBatches(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return commentsJSON("一", "二", "三"), nil
		},
	}
	g := newTestGenerator(client)

	// A clock that only creeps forward between reads, the way a stub that
	// answers in microseconds would: each batch's own base lands well before
	// the previous batch's last per-turn stamp.
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time {
		base = base.Add(50 * time.Millisecond)
		return base
	}

	turns, err := g.Initial(context.Background(), "商品情報", nil)
	require.NoError(t, err)
	require.Len(t, turns, initialTurnTarget)

	for i := 1; i < len(turns); i++ {
		assert.True(t, turns[i].Timestamp.After(turns[i-1].Timestamp),
			"turn %d timestamp not after turn %d", i, i-1)
	}
	assert.Equal(t, time.Duration(len(turns)-1)*time.Second,
		turns[len(turns)-1].Timestamp.Sub(turns[0].Timestamp))
}

func TestGenerator_InitialStopsOnEmptyBatch(t *testing.T) {
	calls := 0
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			calls++
			if calls > 2 {
				return `{"comments":[]}`, nil
			}
			return commentsJSON("一", "二"), nil
		},
	}
	g := newTestGenerator(client)

	turns, err := g.Initial(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, turns, 4)
}

func TestGenerator_InitialPropagatesError(t *testing.T) {
	client := &stubClient{
		generateJSON: func(ctx context.Context, req llm.Request) (string, error) {
			return "", errors.New("boom")
		},
	}
	g := newTestGenerator(client)

	_, err := g.Initial(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestGenerator_TitleFallsBackOnError(t *testing.T) {
	client := &stubClient{
		generate: func(ctx context.Context, req llm.Request) (string, error) {
			return "", errors.New("quota")
		},
	}
	g := newTestGenerator(client)

	title := g.Title(context.Background(), Product{Name: "加湿器X", Price: "2,980円"})
	assert.Contains(t, title, "加湿器X")
	assert.Contains(t, title, "2,980円")
}

func TestGenerator_TitleFallsBackOnEmptyOutput(t *testing.T) {
	client := &stubClient{
		generate: func(ctx context.Context, req llm.Request) (string, error) {
			return "\n  \n", nil
		},
	}
	g := newTestGenerator(client)

	title := g.Title(context.Background(), Product{Name: "加湿器X"})
	assert.Contains(t, title, "加湿器X")
	assert.Contains(t, title, "アツすぎる件")
}

func TestGenerator_TitleUsesFirstLine(t *testing.T) {
	client := &stubClient{
		generate: func(ctx context.Context, req llm.Request) (string, error) {
			return "「【急げ】加湿器Xが安すぎる」\n補足説明", nil
		},
	}
	g := newTestGenerator(client)

	title := g.Title(context.Background(), Product{Name: "加湿器X"})
	assert.Equal(t, "【急げ】加湿器Xが安すぎる", title)
}

func TestRenderContext(t *testing.T) {
	turns := []TranscriptTurn{
		{SpeakerName: "A", Content: "一言目"},
		{SpeakerName: "B", Content: "二言目"},
		{SpeakerName: "C", Content: "三言目"},
	}

	lines := RenderContext(turns, 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "C「三言目」", lines[0])
	assert.Equal(t, "B「二言目」", lines[1])

	assert.Len(t, RenderContext(turns, 0), 3)
	assert.Empty(t, RenderContext(nil, 10))
}
