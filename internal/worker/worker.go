package worker

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/buzzboard/internal/database"
	"github.com/buzzboard/internal/promo"
	"github.com/buzzboard/internal/scraper"
)

// Outcome status tags reported to the cron caller.
const (
	StatusSkipped       = "skipped"
	StatusScrapeFailed  = "scrape_failed"
	StatusCreated       = "created"
	StatusExtended      = "extended"
	StatusNoThread      = "no_thread"
	StatusNoNewComments = "no_new_comments"
)

// Thread selection modes for ExtendThread.
const (
	SelectLatest = "latest"
	SelectRandom = "random"
)

// Outcome describes what a single worker tick did.
type Outcome struct {
	Status   string        `json:"status"`
	TopicID  string        `json:"topic_id,omitempty"`
	ThreadID string        `json:"thread_id,omitempty"`
	Added    int           `json:"added_count,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Thread   *promo.Thread `json:"thread,omitempty"`
}

// PageFetcher is the scrape dependency, satisfied by scraper.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// ItemEnricher supplements page text with structured shop data, satisfied by
// scraper.RakutenClient.
type ItemEnricher interface {
	Enabled() bool
	ItemDetails(ctx context.Context, url string) string
}

// Worker drives the automated thread pipeline: queue draining plus thread
// extension.
type Worker struct {
	queue     database.QueueRepository
	threads   database.ThreadRepository
	fetcher   PageFetcher
	enricher  ItemEnricher
	extractor *promo.Extractor
	generator *promo.Generator
	names     *promo.NameGenerator
}

func New(
	queue database.QueueRepository,
	threads database.ThreadRepository,
	fetcher PageFetcher,
	enricher ItemEnricher,
	extractor *promo.Extractor,
	generator *promo.Generator,
	names *promo.NameGenerator,
) *Worker {
	return &Worker{
		queue:     queue,
		threads:   threads,
		fetcher:   fetcher,
		enricher:  enricher,
		extractor: extractor,
		generator: generator,
		names:     names,
	}
}

// AdvanceQueue processes one queue item end to end: claim, scrape, extract,
// generate, persist. The claim marks the item done up front, so whatever
// happens afterwards the queue keeps moving; failures are reported in the
// outcome instead. An empty queue falls back to extending a random existing
// thread so scheduled ticks always produce content when any thread exists.
func (w *Worker) AdvanceQueue(ctx context.Context) (Outcome, error) {
	topic, err := w.queue.ClaimOldest(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if topic == nil {
		log.Debug().Msg("topic queue empty, extending a random thread instead")
		return w.ExtendThread(ctx, SelectRandom)
	}

	url := strings.TrimSpace(topic.URL)
	if url == "" {
		log.Warn().Str("topic_id", topic.ID).Msg("queue item has no url, skipping")
		return Outcome{Status: StatusSkipped, TopicID: topic.ID}, nil
	}

	outcome, err := w.createThread(ctx, topic, url)
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// GenerateFromURL runs the same pipeline for a single operator-supplied URL
// without touching the queue. Scrape failures are a soft outcome here too:
// the operator is told to paste the page text instead.
func (w *Worker) GenerateFromURL(ctx context.Context, url string) (Outcome, error) {
	url = strings.TrimSpace(url)
	return w.createThread(ctx, &promo.QueueItem{URL: url}, url)
}

func (w *Worker) createThread(ctx context.Context, topic *promo.QueueItem, url string) (Outcome, error) {
	page, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		// The item is already done; one dead page must not stall the queue.
		log.Warn().Err(err).Str("topic_id", topic.ID).Str("url", url).Msg("scrape failed")
		return Outcome{Status: StatusScrapeFailed, TopicID: topic.ID, Detail: err.Error()}, nil
	}

	pageText := page.Text
	if w.enricher != nil && w.enricher.Enabled() {
		if details := w.enricher.ItemDetails(ctx, url); details != "" {
			pageText = pageText + "\n\n" + details
		}
	}

	product, err := w.extractor.Extract(ctx, pageText, nil)
	if err != nil {
		return Outcome{}, err
	}

	extra := operatorContext(topic)
	productInfo := product.Info(url, extra)

	turns, err := w.generator.Initial(ctx, productInfo, nil)
	if err != nil {
		return Outcome{}, err
	}
	turns = w.renameSpeakers(turns)

	// An operator-supplied title wins over the generated one.
	title := strings.TrimSpace(topic.Title)
	if title == "" {
		title = w.generator.Title(ctx, product)
	}

	buttonURL := strings.TrimSpace(topic.AffiliateURL)
	if buttonURL == "" {
		buttonURL = url
	}

	thread, err := w.threads.Insert(ctx, promo.Thread{
		ProductName:  title,
		SourceURL:    url,
		AffiliateURL: buttonURL,
		KeyFeatures:  product.KeyFeatures(),
		OGImageURL:   page.OGImage,
		CastProfiles: []promo.CastProfile{},
		Transcript:   turns,
	})
	if err != nil {
		return Outcome{}, err
	}

	log.Debug().
		Str("topic_id", topic.ID).
		Str("thread_id", thread.ID).
		Int("turns", len(turns)).
		Msg("thread created from queue")

	return Outcome{
		Status:   StatusCreated,
		TopicID:  topic.ID,
		ThreadID: thread.ID,
		Added:    len(turns),
		Thread:   &thread,
	}, nil
}

// ExtendThread appends 1-3 follow-up comments to the latest or a random
// thread. Zero generated comments leaves the store untouched.
func (w *Worker) ExtendThread(ctx context.Context, selection string) (Outcome, error) {
	var (
		thread *promo.Thread
		err    error
	)
	if selection == SelectRandom {
		thread, err = w.threads.Random(ctx)
	} else {
		thread, err = w.threads.Latest(ctx)
	}
	if err != nil {
		return Outcome{}, err
	}
	if thread == nil {
		return Outcome{Status: StatusNoThread}, nil
	}

	contextLines := promo.RenderContext(thread.Transcript, 10)
	productInfo := thread.ProductName + "\n" + thread.KeyFeatures

	newTurns, err := w.generator.Append(ctx, contextLines, productInfo, nil)
	if err != nil {
		return Outcome{}, err
	}
	if len(newTurns) == 0 {
		return Outcome{Status: StatusNoNewComments, ThreadID: thread.ID}, nil
	}

	updated := append(thread.Transcript, newTurns...)
	if err := w.threads.UpdateTranscript(ctx, thread.ID, updated); err != nil {
		return Outcome{}, err
	}

	log.Debug().Str("thread_id", thread.ID).Int("added", len(newTurns)).Msg("thread extended")
	return Outcome{Status: StatusExtended, ThreadID: thread.ID, Added: len(newTurns)}, nil
}

// renameSpeakers swaps model-chosen speaker names for random pseudonyms. The
// substitution is per distinct name, so a voice that spoke twice keeps one
// identity.
func (w *Worker) renameSpeakers(turns []promo.TranscriptTurn) []promo.TranscriptTurn {
	var distinct []string
	seen := map[string]struct{}{}
	for _, t := range turns {
		if _, ok := seen[t.SpeakerName]; ok {
			continue
		}
		seen[t.SpeakerName] = struct{}{}
		distinct = append(distinct, t.SpeakerName)
	}

	generated := w.names.Unique(len(distinct))
	nameMap := make(map[string]string, len(distinct))
	for i, original := range distinct {
		if i < len(generated) {
			nameMap[original] = generated[i]
		} else {
			nameMap[original] = original
		}
	}

	renamed := make([]promo.TranscriptTurn, len(turns))
	for i, t := range turns {
		renamed[i] = t
		if name, ok := nameMap[t.SpeakerName]; ok {
			renamed[i].SpeakerName = name
		}
	}
	return renamed
}

// operatorContext joins the optional free-text fields the operator attached
// to the queue item; it outranks scraped data in prompts.
func operatorContext(topic *promo.QueueItem) string {
	var parts []string
	if text := strings.TrimSpace(topic.AffiliateText); text != "" {
		parts = append(parts, text)
	}
	if text := strings.TrimSpace(topic.Context); text != "" {
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}
