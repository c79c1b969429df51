package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"go-job-harvester/internal/config"
	"go-job-harvester/internal/database"
	"go-job-harvester/internal/export"
	"go-job-harvester/internal/extract"
	"go-job-harvester/internal/harvest"
	"go-job-harvester/internal/scraper"
	"go-job-harvester/internal/telegram"
)

const (
	exitPersistFailed = 1
	exitConfig        = 2
	exitExportFailed  = 3
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	//load config before touching the browser
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("❌ Invalid configuration: %v", err)
		os.Exit(exitConfig)
	}
	log.Printf("🔧 Config loaded. Source: %s (max %d pages)", cfg.Source.URLTemplate, cfg.Source.MaxPages)

	//telegram is optional
	var notifier harvest.Notifier
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("⚠️ Failed to init Telegram Bot: %v. Continuing without it.", err)
		} else {
			log.Println("🤖 Telegram Bot initialized.")
			notifier = bot
		}
	}

	gateway := database.NewGateway(cfg.Database.URL)
	exporter := export.New(gateway, export.Options{Comma: cfg.DelimiterRune()})
	collector := harvest.NewBrowserCollector(cfg, scraper.DefaultSite(), extract.LogSink{})

	runner := harvest.NewRunner(collector, gateway, exporter, cfg.Export.Path, notifier)
	summary, err := runner.Run(context.Background())
	switch {
	case errors.Is(err, harvest.ErrPersistFailed):
		log.Printf("❌ %s: %v", summary.State, err)
		os.Exit(exitPersistFailed)
	case errors.Is(err, harvest.ErrExportFailed):
		log.Printf("❌ %s: %v", summary.State, err)
		os.Exit(exitExportFailed)
	}

	log.Printf("✅ %s", summary)
	log.Println("🏁 Execution finished.")
}
