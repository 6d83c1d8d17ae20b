package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"unilib/internal/api"
	"unilib/internal/bot"
	"unilib/internal/cache"
	"unilib/internal/config"
	"unilib/internal/report"
	"unilib/internal/storage"
	"unilib/internal/storage/ch"
	"unilib/internal/storage/mysql"
	"unilib/internal/storage/stubs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// telegramBot is the part of *bot.Bot the application drives
type telegramBot interface {
	Start() error
	StartWebhook(webhookURL string) error
	HandleWebhookUpdate(update tgbotapi.Update)
	Stop()
}

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.Storage
	cache   *cache.ReportCache
	reports *report.Assembler
	bot     telegramBot
	server  *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	return newApp(cfg, logger)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	logger.Info("Starting UniLib...", zap.String("store", cfg.StoreDriver))

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initReports()
	if err := app.initBot(); err != nil {
		return nil, err
	}
	app.initHTTPServer()

	return app, nil
}

// initDatabase initializes the configured store
func (a *App) initDatabase() error {
	cfg := a.config
	var db storage.Storage
	switch cfg.StoreDriver {
	case config.DriverMock:
		a.logger.Info("Using mock database")
		db = stubs.NewMockDB()
	case config.DriverClickHouse:
		a.logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		chDB, err := ch.NewClickHouseDB(cfg.ClickHouseHost, cfg.ClickHousePort, cfg.ClickHouseDatabase,
			cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseUseTLS)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = chDB
	case config.DriverMySQL:
		a.logger.Info("Connecting to MySQL",
			zap.String("host", cfg.MySQLHost),
			zap.Int("port", cfg.MySQLPort),
			zap.String("database", cfg.MySQLDatabase),
			zap.String("user", cfg.MySQLUser),
		)
		myDB, err := mysql.NewDB(cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDatabase, cfg.MySQLUser, cfg.MySQLPassword)
		if err != nil {
			return fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		db = myDB
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if err := db.Initialize(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// initReports wires the assembler, fronted by Redis when it is reachable
func (a *App) initReports() {
	var opts []report.Option
	rdb := cache.NewRedisClient(a.config.RedisAddr, a.config.RedisPassword, a.config.RedisDB)
	a.cache = cache.NewReportCache(rdb, a.config.CacheTTL, a.logger)
	if a.cache.Enabled() {
		a.logger.Info("Report cache enabled",
			zap.String("redis_addr", a.config.RedisAddr),
			zap.Duration("ttl", a.config.CacheTTL))
		opts = append(opts, report.WithCache(a.cache))
	} else if a.config.RedisAddr != "" {
		a.logger.Warn("Redis unreachable, running without report cache", zap.String("redis_addr", a.config.RedisAddr))
	}
	a.reports = report.NewAssembler(a.db, a.logger, opts...)
}

// initBot initializes the Telegram bot when a token is configured
func (a *App) initBot() error {
	if !a.config.BotEnabled() {
		a.logger.Info("TELEGRAM_BOT_TOKEN not set, running without the bot")
		return nil
	}
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.reports, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// routes builds the HTTP surface: the report API, a root banner and the
// Telegram webhook when the bot runs
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	apiServer := api.NewServer(a.reports, a.logger, api.Options{
		RateLimitRPS:   a.config.RateLimitRPS,
		RateLimitBurst: a.config.RateLimitBurst,
		// Mini App clients sign their requests when the bot serves them
		RequireAuth:    a.config.BotEnabled() && a.config.WebhookMode,
		BotToken:       a.config.TelegramToken,
		AllowedUserIDs: a.config.AllowedUserIDs,
	})
	apiServer.RegisterRoutes(mux)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		mode := "no bot"
		if a.bot != nil {
			mode = "polling"
			if a.config.WebhookMode {
				mode = "webhook"
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "UniLib is running (store: %s, bot: %s)", a.config.StoreDriver, mode)
	})

	if a.bot != nil {
		mux.HandleFunc("POST "+bot.WebhookPath, func(w http.ResponseWriter, r *http.Request) {
			var update tgbotapi.Update
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				a.logger.Warn("Error decoding webhook update", zap.Error(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			// Process update in background to respond quickly to Telegram
			go a.bot.HandleWebhookUpdate(update)

			w.WriteHeader(http.StatusOK)
		})
	}
	return mux
}

// initHTTPServer configures the HTTP server; Run starts it
func (a *App) initHTTPServer() {
	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      a.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if a.bot != nil {
		if a.config.WebhookMode {
			a.logger.Info("Starting bot in WEBHOOK mode", zap.String("webhook_url", a.config.WebhookURL))
			if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
				_ = a.Shutdown()
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
		} else {
			go func() {
				if err := a.bot.Start(); err != nil {
					a.logger.Error("Bot polling stopped", zap.Error(err))
				}
			}()
		}
	}

	select {
	case <-sigChan:
	case err := <-serverErr:
		a.logger.Error("HTTP server error", zap.Error(err))
		_ = a.Shutdown()
		return err
	}

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if a.bot != nil {
		a.bot.Stop()
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Warn("Error closing report cache", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
