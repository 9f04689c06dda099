package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/buzzboard/internal/database"
	"github.com/buzzboard/internal/llm"
	"github.com/buzzboard/internal/promo"
	"github.com/buzzboard/internal/scraper"
	"github.com/buzzboard/internal/worker"
)

// QueueWorker is the pipeline dependency behind the cron and generate
// endpoints, satisfied by worker.Worker.
type QueueWorker interface {
	AdvanceQueue(ctx context.Context) (worker.Outcome, error)
	ExtendThread(ctx context.Context, selection string) (worker.Outcome, error)
	GenerateFromURL(ctx context.Context, url string) (worker.Outcome, error)
}

// CommentGenerator appends follow-up turns to an existing conversation,
// satisfied by promo.Generator.
type CommentGenerator interface {
	Append(ctx context.Context, contextLines []string, productInfo string, image *llm.ImagePart) ([]promo.TranscriptTurn, error)
}

// HypeRunner is the legacy two-stage generation path, satisfied by
// promo.HypeGenerator.
type HypeRunner interface {
	Analyze(ctx context.Context, inputText string) (promo.HypeAnalysis, error)
	Transcript(ctx context.Context, analysis promo.HypeAnalysis) ([]promo.TranscriptTurn, error)
}

// PageReader covers the scrape needs of the HTTP surface, satisfied by
// scraper.Fetcher.
type PageReader interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
	FetchTitle(ctx context.Context, url string) (string, error)
}

// Config carries the server's listen and auth settings.
type Config struct {
	Port          int
	AdminUser     string
	AdminPassword string
	CronKey       string
}

// Server is the HTTP surface over the queue, threads and workers.
type Server struct {
	echo      *echo.Echo
	cfg       Config
	queue     database.QueueRepository
	threads   database.ThreadRepository
	worker    QueueWorker
	generator CommentGenerator
	hype      HypeRunner
	pages     PageReader
}

func NewServer(
	cfg Config,
	queue database.QueueRepository,
	threads database.ThreadRepository,
	queueWorker QueueWorker,
	generator CommentGenerator,
	hype HypeRunner,
	pages PageReader,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:      e,
		cfg:       cfg,
		queue:     queue,
		threads:   threads,
		worker:    queueWorker,
		generator: generator,
		hype:      hype,
		pages:     pages,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	api := s.echo.Group("/api")

	// Public read surface.
	api.GET("/threads", s.listThreads)
	api.GET("/threads/:id", s.getThread)

	// Admin surface.
	admin := api.Group("", s.adminAuth())
	admin.POST("/topic-queue", s.createQueueItem)
	admin.GET("/topic-queue", s.listQueue)
	admin.PATCH("/topic-queue/:id", s.updateQueueItem)
	admin.DELETE("/topic-queue/:id", s.deleteQueueItem)
	admin.DELETE("/threads/:id", s.deleteThread)
	admin.POST("/threads/:id/comments", s.appendComments)
	admin.POST("/threads/generate", s.generateThread)
	admin.POST("/threads/hype", s.createHype)
	admin.GET("/fetch-title", s.fetchTitle)

	// Scheduler surface.
	cron := api.Group("/cron", s.cronAuth)
	cron.GET("/create-thread", s.cronCreateThread)
	cron.GET("/extend-thread", s.cronExtendThread)
}

// Start serves until an interrupt arrives, then drains in-flight requests.
func (s *Server) Start() error {
	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
