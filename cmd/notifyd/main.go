// notifyd is the EventCraft notification daemon: it scans upcoming events for
// due reminders, dispatches notifications over email and SMS, and fans out
// real-time frames to connected websocket sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/balkirat0001/eventcraft2/internal/api"
	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/config"
	"github.com/balkirat0001/eventcraft2/internal/dispatch"
	"github.com/balkirat0001/eventcraft2/internal/history"
	"github.com/balkirat0001/eventcraft2/internal/hub"
	"github.com/balkirat0001/eventcraft2/internal/logging"
	"github.com/balkirat0001/eventcraft2/internal/metrics"
	"github.com/balkirat0001/eventcraft2/internal/scheduler"
	"github.com/balkirat0001/eventcraft2/internal/source"
	"github.com/balkirat0001/eventcraft2/internal/state"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listenAddr := flag.String("listen", "", "HTTP listen address (overrides config)")
	runOnce := flag.Bool("once", false, "run a single reminder scan and exit")
	flag.Parse()

	// Local .env, matching how the provider credentials are usually supplied.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	cleanup, err := logging.Init(os.Getenv("EVENTCRAFT_LOG_FILE"), os.Getenv("EVENTCRAFT_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	log := logging.Get()

	if err := cfg.CredentialsError(); err != nil {
		log.Fatal().Err(err).Msg("invalid provider credentials")
	}
	for _, warning := range cfg.Validate() {
		log.Warn().Msg(warning)
	}

	if err := run(cfg, *runOnce); err != nil {
		log.Fatal().Err(err).Msg("notifyd exited with error")
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, runOnce bool) error {
	log := logging.Get()

	var email dispatch.EmailSender
	if cfg.EmailConfigured() {
		email = channel.NewEmailSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
		log.Info().Str("from", cfg.FromEmail).Msg("email channel configured")
	}
	var sms dispatch.SMSSender
	if cfg.SMSConfigured() {
		sms = channel.NewSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		log.Info().Str("from", cfg.TwilioFromNumber).Msg("sms channel configured")
	}

	var hist history.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		hist = history.NewRedis(client, cfg.HistorySize)
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis dispatch history")
	} else {
		hist = history.NewMemory(cfg.HistorySize)
	}

	h := hub.New()
	defer h.Close()

	dispatcher := dispatch.New(email, sms, cfg.MaxConcurrentSends,
		dispatch.WithHistory(hist),
		dispatch.WithBroadcaster(h),
	)

	src := source.NewHTTP(cfg.EventsAPIURL, cfg.EventsAPIToken)
	sched := scheduler.New(src, dispatcher, cfg.ReminderLead, cfg.TickInterval, state.NewJournal(cfg.StateDir))

	if runOnce {
		sched.Scan(context.Background())
		return nil
	}

	if cfg.MetricsEnabled {
		startMetricsServer(cfg.MetricsPort)
	}
	if cfg.InfluxURL != "" {
		influxCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go metrics.StartInfluxPusher(influxCtx, cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, cfg.InfluxInterval)
	}

	go sched.Start()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(dispatcher, sched, hist, h, src).Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sched.Stop(ctx)
	h.Close()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown incomplete")
	}
	log.Info().Msg("notifyd stopped")
	return nil
}

// startMetricsServer serves Prometheus and JSON snapshots on a side port,
// kept off the public API listener.
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.PromHandler())
	mux.Handle("/stats", metrics.JSONHandler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		logging.Get().Info().Str("addr", addr).Msg("metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Get().Error().Err(err).Msg("metrics server stopped")
		}
	}()
}
