package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/catalog"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/database"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/logger"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
)

func main() {
	var yes bool
	flag.BoolVar(&yes, "yes", false, "Confirm destructive commands")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}
	// Accept the flag after the command too: "dbtool clear --yes".
	for _, a := range args[1:] {
		if a == "-yes" || a == "--yes" {
			yes = true
		}
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// The catalog check needs no database.
	if args[0] == "catalog" {
		words, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			fmt.Printf("Catalog %s is invalid: %v\n", cfg.CatalogPath, err)
			os.Exit(1)
		}
		fmt.Printf("Catalog %s OK: %d words\n", cfg.CatalogPath, words.Len())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewMaintenanceRepository(pool)

	switch args[0] {
	case "status":
		c, err := repo.Counts(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to count rows")
		}
		fmt.Printf("users:             %d\n", c.Users)
		fmt.Printf("practice_sessions: %d\n", c.Sessions)
		fmt.Printf("session_records:   %d\n", c.Records)
		fmt.Printf("match_attempts:    %d\n", c.MatchAttempts)
	case "clear":
		if !yes {
			fmt.Println("Refusing to delete all data without --yes")
			os.Exit(1)
		}
		if err := repo.TruncateAll(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to clear tables")
		}
		fmt.Println("All tables cleared")
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("Usage: dbtool [flags] <command>")
	fmt.Println("Commands: status, clear, catalog")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
