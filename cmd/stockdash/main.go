package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"StockDash/internal/account"
	"StockDash/internal/auth"
	"StockDash/internal/collector"
	"StockDash/internal/config"
	"StockDash/internal/forecast"
	"StockDash/internal/live"
	"StockDash/internal/notifier"
	"StockDash/internal/observability"
	"StockDash/internal/recorder"
	"StockDash/internal/scheduler"
	"StockDash/internal/server"
	"StockDash/internal/store"
	"StockDash/internal/store/jsonfile"
	"StockDash/internal/store/postgres"
	"StockDash/internal/translate"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockDash starting...")

	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] no .env file found, using process environment")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("stockdash")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init market data
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{Price: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RequestTimeout)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	src := collector.NewSource(fetcher, collector.RetryPolicy{
		MaxRetries: cfg.DataSource.MaxRetries,
		BaseDelay:  cfg.DataSource.RetryDelay,
	}, cfg.DataSource.RequestTimeout, metrics)
	src.OnFailure = func(symbol, op string, err error) {
		f := &recorder.FetchFailure{At: time.Now(), Provider: fetcher.Name(), Op: op, Symbol: symbol, Error: err.Error()}
		if err := rec.RecordFetchFailure(context.Background(), f); err != nil {
			log.Printf("[WARN] record fetch failure: %v", err)
		}
	}
	movers := collector.NewMoversCache(collector.NewMoversClient(cfg.Proxy, cfg.DataSource.RequestTimeout), src, 0)

	// Init storage
	files, err := jsonfile.New(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("[FATAL] init data dir: %v", err)
	}
	var users store.UserStore = files
	var tokens store.TokenStore = files
	if cfg.Storage.Driver == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("[FATAL] connect postgres: %v", err)
		}
		defer pool.Close()
		if err := pool.Migrate(ctx); err != nil {
			log.Fatalf("[FATAL] migrate postgres: %v", err)
		}
		pg := postgres.NewUserStore(pool)
		users, tokens = pg, pg
		log.Println("[INFO] accounts stored in postgres")
	}

	// Init notifiers
	var mailer auth.Mailer
	if cfg.MailEnabled() {
		mailer = notifier.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, metrics)
	} else {
		log.Println("[WARN] SMTP not configured, reset links will only be logged")
	}

	var tn *notifier.TelegramNotifier
	var ops account.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, metrics)
		op := notifier.NewOperator(tn, 64, 3)
		go op.Run(ctx)
		ops = op
	}

	authSvc := auth.NewService(users, tokens, mailer, auth.Config{
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
		BaseURL:    cfg.Auth.BaseURL,
	}, metrics)
	sessions := auth.NewSessionManager(cfg.Auth.SessionTTL)
	accountSvc := account.NewService(files, files, ops, metrics)

	// Init live refresh
	poller := live.NewPoller(src, cfg.Live.TickerInterval, live.TickConfig{StagnantAfter: cfg.Live.StagnantAfter}, metrics)
	hub := live.NewHub(poller, metrics)
	hub.Normalize = collector.NormalizeSymbol
	hub.AllowedOrigins = cfg.Server.AllowedOrigins
	strip := &live.IndexStrip{
		Source:   src,
		Tickers:  cfg.Indices,
		Interval: cfg.Live.IndexInterval,
		Active:   func() bool { return hub.Subscribers() > 0 },
	}
	go strip.Run(ctx, hub)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, authSvc, sessions, movers, rec, files, metrics)
	sched.Retention = cfg.Schedule.Retention
	sched.Viewers = hub.LiveViewers
	sched.Provider = fetcher.Name()
	if err := sched.RegisterAll(cfg.Schedule.CleanupCron, cfg.Schedule.MoversCron, cfg.Schedule.PruneCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()
	go sched.RefreshMoversNow()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	srv := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  cfg.Server.SecureCookies,
		TemplatesDir:   cfg.Server.TemplatesDir,
		DefaultSymbol:  cfg.DataSource.DefaultSymbol,
		DefaultDays:    cfg.DataSource.DefaultDays,
		DefaultHorizon: cfg.Forecast.DefaultHorizon,
		Indices:        cfg.Indices,
	}, server.Deps{
		Source:    src,
		Movers:    movers,
		Forecast:  forecast.NewEngine(cfg.Forecast.Seed),
		Auth:      authSvc,
		Sessions:  sessions,
		Account:   accountSvc,
		Translate: translate.NewClient(cfg.Translate.Endpoint, cfg.Translate.Email, cfg.DataSource.RequestTimeout, metrics),
		Hub:       hub,
		Recorder:  rec,
		Metrics:   metrics,
	})
	httpServer := srv.HTTPServer()

	go func() {
		log.Printf("[INFO] listening on %s (data in %s)", cfg.Server.Addr, filepath.Clean(cfg.Storage.DataDir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] StockDash is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] StockDash stopped")
}
