package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/WoushouW/woushBOT/internal/botapi"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: modpanel-cli migrate [down]")
			fmt.Println()
			fmt.Println("Apply the audit log migrations from the migrations/ directory.")
			fmt.Println("With 'down', roll back one step.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runMigrate(len(os.Args) > 2 && os.Args[2] == "down"))
	case "health":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: modpanel-cli health")
			fmt.Println()
			fmt.Println("Check if the panel is running and can reach redis.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  SERVER_URL  Panel base URL (default: http://localhost:8080)")
			return
		}
		os.Exit(runHealth())
	case "bot-status":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: modpanel-cli bot-status")
			fmt.Println()
			fmt.Println("Log in to the bot API and print the bot and its servers.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  BOT_API_URL  Bot API base URL (required)")
			fmt.Println("  PANEL_PIN    Login PIN (required)")
			return
		}
		os.Exit(runBotStatus())
	case "version":
		fmt.Printf("modpanel-cli %s\n", version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: modpanel-cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate     Run audit log migrations")
	fmt.Println("  health      Check if the panel is running")
	fmt.Println("  bot-status  Print bot info and servers")
	fmt.Println("  version     Print version info")
	fmt.Println()
	fmt.Println("Run 'modpanel-cli <command> --help' for details on a command.")
}

func hasFlag(flag string, args []string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --- migrate ---

func runMigrate(down bool) int {
	dbURL := requireEnv("DATABASE_URL")

	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: migration init failed: %v\n", err)
		return 1
	}
	defer m.Close()

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stderr, "error: migration failed: %v\n", err)
		return 1
	}

	v, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		fmt.Println("no migrations applied")
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Printf("no new migrations (current version: %d)\n", v)
	default:
		fmt.Printf("migrations applied (version: %d, dirty: %v)\n", v, dirty)
	}
	return 0
}

// --- health ---

func runHealth() int {
	url := strings.TrimRight(envOr("SERVER_URL", "http://localhost:8080"), "/") + "/health"
	fmt.Printf("checking %s ...\n", url)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status: %d\n", resp.StatusCode)
	if len(body) > 0 {
		fmt.Printf("body:   %s\n", string(body))
	}

	if resp.StatusCode == http.StatusOK {
		fmt.Println("panel is healthy")
		return 0
	}
	fmt.Fprintln(os.Stderr, "panel returned non-200 status")
	return 1
}

// --- bot-status ---

func runBotStatus() int {
	baseURL := strings.TrimRight(requireEnv("BOT_API_URL"), "/")
	pin := requireEnv("PANEL_PIN")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := botapi.New(baseURL, 10*time.Second, botapi.WithRetry(3, 2*time.Second))
	login, err := client.Login(ctx, pin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: login failed: %v\n", err)
		return 1
	}
	bot := client.As(login.Token)

	info, err := bot.BotInfo(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading bot info: %v\n", err)
		return 1
	}
	guilds, err := bot.Guilds(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading servers: %v\n", err)
		return 1
	}

	fmt.Printf("bot:     %s (%s)\n", info.Username, info.ID)
	if info.Uptime != nil {
		fmt.Printf("uptime:  %s\n", *info.Uptime)
	}
	fmt.Printf("role:    %s\n", login.Role)
	fmt.Printf("servers: %d\n", len(guilds))
	for _, g := range guilds {
		fmt.Printf("  %-20s %s (%d members)\n", g.ID, g.Name, g.MemberCount)
	}
	return 0
}
