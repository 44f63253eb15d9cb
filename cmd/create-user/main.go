package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/adaptive"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/database"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/logger"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/model"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/repository"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Registration only hashes passwords, so no Redis is needed.
	authService := service.NewAuthService(cfg, nil)
	userRepo := repository.NewUserRepository(pool)
	userService := service.NewUserService(userRepo, nil, authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Patient Account ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		fmt.Println("Error: Username must be at least 3 characters")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	fmt.Print("Enter Severity (mild/moderate/severe, blank for none): ")
	severityStr, _ := reader.ReadString('\n')
	severityStr = strings.ToLower(strings.TrimSpace(severityStr))
	var severity *string
	if severityStr != "" {
		if !adaptive.ValidSeverity(severityStr) {
			fmt.Println("Error: Severity must be mild, moderate or severe")
			return
		}
		severity = &severityStr
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.Register(ctx, &model.RegisterRequest{
		Username: username,
		Password: password,
		Severity: severity,
	})
	if errors.Is(err, repository.ErrDuplicateUsername) {
		fmt.Printf("Error: username '%s' is already taken\n", username)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' created with ID %d (time limit %d ms)\n",
		user.Username, user.ID, user.InitialTimeLimitMs)
}
