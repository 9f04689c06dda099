package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/buzzboard/internal/llm"
)

const (
	// Initial generation accumulates Stream batches until this many turns…
	initialTurnTarget = 10
	// …bailing out if the running total ever exceeds this safety cap.
	initialTurnCap = 12

	maxAppendTurns       = 3
	maxContinuationTurns = 10
)

type rawComment struct {
	SpeakerName      string `json:"speaker_name"`
	SpeakerAttribute string `json:"speaker_attribute"`
	Content          string `json:"content"`
}

type commentsPayload struct {
	Comments []rawComment `json:"comments"`
}

// Generator produces conversation turns through the generative API.
type Generator struct {
	client llm.Client
	names  *NameGenerator
	now    func() time.Time
}

func NewGenerator(client llm.Client, names *NameGenerator) *Generator {
	return &Generator{
		client: client,
		names:  names,
		now:    time.Now,
	}
}

// Stream generates 1-3 fresh comments for the given conversation context,
// each with a new persona. Speaker names are whatever the model chose; the
// queue worker rewrites them afterwards.
func (g *Generator) Stream(ctx context.Context, contextLines []string, productInfo string, image *llm.ImagePart) ([]TranscriptTurn, error) {
	comments, err := g.generateComments(ctx, streamPrompt(contextLines, productInfo), streamSystemInstruction, image)
	if err != nil {
		return nil, err
	}
	return g.toTurns(comments), nil
}

// Append generates 1-3 follow-up comments riding on an existing thread. The
// model's speaker names are discarded and replaced with random pseudonyms.
func (g *Generator) Append(ctx context.Context, contextLines []string, productInfo string, image *llm.ImagePart) ([]TranscriptTurn, error) {
	comments, err := g.generateComments(ctx, appendPrompt(contextLines, productInfo), appendSystemInstruction, image)
	if err != nil {
		return nil, err
	}
	if len(comments) > maxAppendTurns {
		comments = comments[:maxAppendTurns]
	}
	return g.toRenamedTurns(comments), nil
}

// Continuation generates 5-10 "days later" follow-up comments: purchase
// reviews, delivery reports, nudges for fence-sitters.
func (g *Generator) Continuation(ctx context.Context, contextLines []string, productInfo string) ([]TranscriptTurn, error) {
	comments, err := g.generateComments(ctx, continuationPrompt(contextLines, productInfo), continuationSystemInstruction, nil)
	if err != nil {
		return nil, err
	}
	if len(comments) > maxContinuationTurns {
		comments = comments[:maxContinuationTurns]
	}
	return g.toRenamedTurns(comments), nil
}

// Initial runs the batch-accumulation loop: Stream is called repeatedly,
// feeding accumulated turns back as context, until at least 10 turns are
// collected, a call returns zero turns, or the safety cap trips. The result
// is truncated to exactly the first 10.
func (g *Generator) Initial(ctx context.Context, productInfo string, image *llm.ImagePart) ([]TranscriptTurn, error) {
	base := g.now()

	var turns []TranscriptTurn
	for len(turns) < initialTurnTarget {
		batch, err := g.Stream(ctx, RenderContext(turns, initialTurnTarget), productInfo, image)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			log.Warn().Int("collected", len(turns)).Msg("generator returned empty batch, stopping accumulation")
			break
		}
		turns = append(turns, batch...)
		if len(turns) > initialTurnCap {
			break
		}
	}

	if len(turns) > initialTurnTarget {
		turns = turns[:initialTurnTarget]
	}

	// Each Stream batch stamps from its own clock read, so a batch answered
	// in under a second would start earlier than the previous batch's last
	// turn. Restamp the whole sequence from one base to keep it monotone.
	for i := range turns {
		turns[i].Timestamp = base.Add(time.Duration(i) * time.Second)
	}
	return turns, nil
}

// Title asks the model for a thread title; on any failure it falls back to a
// deterministic template so thread creation never dies on a title.
func (g *Generator) Title(ctx context.Context, p Product) string {
	raw, err := g.client.Generate(ctx, llm.Request{
		Prompt:            titlePrompt(p),
		SystemInstruction: titleSystemInstruction,
	})
	if err != nil {
		log.Warn().Err(err).Msg("title generation failed, using template fallback")
		return FallbackTitle(p)
	}

	title := firstLine(raw)
	if title == "" {
		return FallbackTitle(p)
	}
	return title
}

func (g *Generator) generateComments(ctx context.Context, prompt, system string, image *llm.ImagePart) ([]rawComment, error) {
	raw, err := g.client.GenerateJSON(ctx, llm.Request{
		Prompt:            prompt,
		SystemInstruction: system,
		Image:             image,
	})
	if err != nil {
		return nil, fmt.Errorf("comment generation call failed: %w", err)
	}

	var payload commentsPayload
	if err := llm.ParseModelJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("comment generation response unparsable: %w", err)
	}

	comments := make([]rawComment, 0, len(payload.Comments))
	for _, c := range payload.Comments {
		if c.Content == "" {
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (g *Generator) toTurns(comments []rawComment) []TranscriptTurn {
	now := g.now()
	turns := make([]TranscriptTurn, 0, len(comments))
	for i, c := range comments {
		name := c.SpeakerName
		if name == "" {
			name = DefaultSpeakerName
		}
		attribute := c.SpeakerAttribute
		if attribute == "" {
			attribute = DefaultSpeakerAttribute
		}
		turns = append(turns, TranscriptTurn{
			ID:               uuid.NewString(),
			SpeakerName:      name,
			SpeakerAttribute: attribute,
			Content:          c.Content,
			Timestamp:        now.Add(time.Duration(i) * time.Second),
		})
	}
	return turns
}

func (g *Generator) toRenamedTurns(comments []rawComment) []TranscriptTurn {
	turns := g.toTurns(comments)
	names := g.names.Unique(len(turns))
	for i := range turns {
		if i < len(names) {
			turns[i].SpeakerName = names[i]
		} else {
			turns[i].SpeakerName = g.names.Random()
		}
	}
	return turns
}

// RenderContext renders the last limit turns as `name「content」` lines, most
// recent first, the way every prompt expects its conversation log.
func RenderContext(turns []TranscriptTurn, limit int) []string {
	if limit <= 0 || limit > len(turns) {
		limit = len(turns)
	}
	recent := turns[len(turns)-limit:]

	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("%s「%s」", recent[i].SpeakerName, recent[i].Content))
	}
	return lines
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "\"「」『』")
		if line != "" {
			return line
		}
	}
	return ""
}
