package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go-job-harvester/internal/config"
	"go-job-harvester/internal/database"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	fmt.Println("Attempting to connect to the job store...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gateway := database.NewGateway(cfg.Database.URL)
	version, err := gateway.Check(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to connect to the database. Error: %v\n(Check your connection string and password)", err)
	}

	count, err := gateway.Count(ctx)
	if err != nil {
		log.Fatalf("❌ Query failed: %v", err)
	}

	fmt.Println("✅ Successfully connected, schema is in place!")
	fmt.Println("🚀 Database Version:", version)
	fmt.Printf("📦 Stored jobs: %d\n", count)
}
