package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/buzzboard/internal/api"
	"github.com/buzzboard/internal/config"
	"github.com/buzzboard/internal/database"
	"github.com/buzzboard/internal/llm"
	"github.com/buzzboard/internal/promo"
	"github.com/buzzboard/internal/scraper"
	"github.com/buzzboard/internal/worker"
)

// ServeCommand returns the CLI command for starting the HTTP server.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the buzzboard API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if port := c.Int("port"); port != 0 {
		cfg.Server.Port = port
	}

	db, err := database.NewConnection(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	client, err := llm.NewGoogleClient(c.Context, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		return fmt.Errorf("failed to create generative client: %w", err)
	}

	queueRepo := database.NewTopicQueueRepository(db)
	threadRepo := database.NewPromoThreadRepository(db)

	names := promo.NewNameGenerator(nil)
	extractor := promo.NewExtractor(client)
	generator := promo.NewGenerator(client, names)
	hype := promo.NewHypeGenerator(client)

	fetcher := scraper.NewFetcher(time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second)
	rakuten := scraper.NewRakutenClient(cfg.Rakuten.AppID, cfg.Rakuten.AccessKey)

	queueWorker := worker.New(queueRepo, threadRepo, fetcher, rakuten, extractor, generator, names)

	server := api.NewServer(api.Config{
		Port:          cfg.Server.Port,
		AdminUser:     cfg.Admin.User,
		AdminPassword: cfg.Admin.Password,
		CronKey:       cfg.Cron.APIKey,
	}, queueRepo, threadRepo, queueWorker, generator, hype, fetcher)

	log.Info().Int("port", cfg.Server.Port).Msg("starting buzzboard server")
	return server.Start()
}
