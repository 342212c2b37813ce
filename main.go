package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"bjduel-go/cogs"
	"bjduel-go/games/blackjack"
	"bjduel-go/ledger"
	"bjduel-go/utils"
)

// CLI holds the process configuration. Env vars (optionally from .env)
// back every flag so deployment platforms can configure the bot without
// arguments.
type CLI struct {
	Debug         bool   `help:"Enable debug logging." env:"DEBUG"`
	Port          string `help:"Health server port." default:"8080" env:"PORT"`
	DefaultBet    int64  `help:"House bet applied when a player never sets one." default:"50" env:"DEFAULT_BET"`
	StartingChips int64  `help:"Chip balance for first-seen players." default:"1000" env:"STARTING_CHIPS"`
	Token         string `help:"Discord bot token." env:"BOT_TOKEN"`
	DatabaseURL   string `help:"Postgres URL for a persistent ledger; empty keeps chips in memory." env:"DATABASE_URL"`
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("bjduel"),
		kong.Description("Two-player dealer-less blackjack bot with per-channel chip ledgers"),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run(cli))
}

func run(cli CLI) error {
	logger := utils.NewLogger(cli.Debug)
	ctx := context.Background()

	var store ledger.Store
	if cli.DatabaseURL != "" {
		pg, err := ledger.OpenPostgres(ctx, cli.DatabaseURL, cli.StartingChips)
		if err != nil {
			return fmt.Errorf("ledger setup failed: %w", err)
		}
		store = pg
		logger.Info("ledger backed by postgres")
	} else {
		store = ledger.NewMemoryStore(cli.StartingChips)
		logger.Info("ledger in memory; balances reset on restart")
	}
	defer store.Close()

	manager := blackjack.NewManager(
		blackjack.Config{DefaultBet: cli.DefaultBet},
		blackjack.NewRegistry(),
		store,
		logger,
	)
	handler := cogs.NewHandler(manager, logger)

	if cli.Token == "" {
		return fmt.Errorf("BOT_TOKEN is not set")
	}

	session, err := discordgo.New("Bot " + cli.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		logger.Info("logged in", "user", event.User.Username, "id", event.User.ID)
		if err := registerCommands(s); err != nil {
			logger.Error("failed to register slash commands", "error", err)
		}
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handler.HandleCommand(s, i)
		case discordgo.InteractionMessageComponent:
			handler.HandleComponent(s, i)
		}
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	defer session.Close()

	go startHealthServer(cli.Port, logger)

	logger.Info("bot is running", "port", cli.Port)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	return nil
}

func registerCommands(s *discordgo.Session) error {
	for _, command := range cogs.Commands() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}
	return nil
}

// startHealthServer serves liveness endpoints for hosting platforms.
func startHealthServer(port string, logger *log.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("bjduel bot is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"bjduel-bot"}`))
	})

	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("health server error", "error", err)
	}
}
