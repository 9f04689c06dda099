package promo

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Queue item status values. Failures are mapped to done on purpose (fail-open)
// so one bad URL can never block the queue; "error" exists for operators who
// want to mark a row by hand.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusError   = "error"
)

// DefaultSpeakerAttribute is assigned to legacy turns that predate personas.
const DefaultSpeakerAttribute = "一般ユーザー"

// DefaultSpeakerName is assigned to legacy turns with no speaker at all.
const DefaultSpeakerName = "匿名"

// QueueItem is one operator-submitted URL awaiting automated thread creation.
type QueueItem struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	AffiliateURL  string    `json:"affiliate_url,omitempty"`
	AffiliateText string    `json:"affiliate_text,omitempty"`
	Title         string    `json:"title,omitempty"`
	Context       string    `json:"context,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// TranscriptTurn is one line of dialogue within a thread, attributed to a
// persona. Timestamps are synthetic (generation time + index seconds), not
// display-time wall clock.
type TranscriptTurn struct {
	ID               string    `json:"id"`
	SpeakerName      string    `json:"speaker_name"`
	SpeakerAttribute string    `json:"speaker_attribute"`
	Content          string    `json:"content"`
	Timestamp        time.Time `json:"timestamp"`
}

// CastProfile is a fixed persona used by the legacy two-stage generation
// path. The queue-driven path stores an empty cast.
type CastProfile struct {
	Name             string `json:"name"`
	Role             string `json:"role"`
	ShortDescription string `json:"short_description"`
}

// Thread is one published generated conversation about a product.
type Thread struct {
	ID           string           `json:"id"`
	ProductName  string           `json:"product_name"`
	SourceURL    string           `json:"source_url,omitempty"`
	AffiliateURL string           `json:"affiliate_url,omitempty"`
	KeyFeatures  string           `json:"key_features"`
	OGImageURL   string           `json:"og_image_url,omitempty"`
	CastProfiles []CastProfile    `json:"cast_profiles"`
	Transcript   []TranscriptTurn `json:"transcript"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Product is the fixed attribute record the structured extractor produces.
type Product struct {
	Name         string `json:"product_name"`
	Manufacturer string `json:"manufacturer"`
	ModelNumber  string `json:"model_number"`
	Price        string `json:"price"`
	SellingPoint string `json:"selling_point"`
	KeySpecs     string `json:"key_specs"`
}

// looseTurn accepts both the current turn shape and the legacy
// {speaker, content} shape found in older persisted transcripts.
type looseTurn struct {
	ID               string `json:"id"`
	SpeakerName      string `json:"speaker_name"`
	Speaker          string `json:"speaker"`
	SpeakerAttribute string `json:"speaker_attribute"`
	Content          string `json:"content"`
	Timestamp        string `json:"timestamp"`
}

// NormalizeTranscript converts a raw persisted transcript, possibly containing
// legacy-shape turns, into the current shape. Idempotent: already-current
// turns pass through unchanged. Entries without content are dropped.
func NormalizeTranscript(raw json.RawMessage) []TranscriptTurn {
	if len(raw) == 0 {
		return []TranscriptTurn{}
	}

	var loose []looseTurn
	if err := json.Unmarshal(raw, &loose); err != nil {
		return []TranscriptTurn{}
	}

	return normalizeTurns(loose)
}

func normalizeTurns(loose []looseTurn) []TranscriptTurn {
	turns := make([]TranscriptTurn, 0, len(loose))
	for _, l := range loose {
		if l.Content == "" {
			continue
		}

		turn := TranscriptTurn{
			ID:               l.ID,
			SpeakerName:      l.SpeakerName,
			SpeakerAttribute: l.SpeakerAttribute,
			Content:          l.Content,
			Timestamp:        coerceTimestamp(l.Timestamp),
		}

		if turn.SpeakerName == "" {
			// Legacy shape carries the name under "speaker".
			if l.Speaker != "" {
				turn.SpeakerName = l.Speaker
			} else {
				turn.SpeakerName = DefaultSpeakerName
			}
		}
		if turn.SpeakerAttribute == "" {
			turn.SpeakerAttribute = DefaultSpeakerAttribute
		}
		if turn.ID == "" {
			turn.ID = uuid.NewString()
		}

		turns = append(turns, turn)
	}
	return turns
}

func coerceTimestamp(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	// Legacy "00:01"-style pseudo-timestamps and other junk.
	return time.Now().UTC()
}
