package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visitgate/internal/config"
	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/infra/api"
	pg "visitgate/internal/infra/db/postgres"
	"visitgate/internal/infra/logging"
	"visitgate/internal/infra/mail"
	"visitgate/internal/infra/metrics"
	red "visitgate/internal/infra/redis"
	"visitgate/internal/infra/sched"
	"visitgate/internal/infra/storage"
	"visitgate/internal/infra/web"
	"visitgate/internal/infra/worker"
	"visitgate/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, dev adapters)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	cooldown := red.NewCooldownLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	companyRepo := pg.NewCompanyRepo(pool)
	roomRepo := pg.NewRoomRepo(pool)
	bookingRepo := pg.NewBookingRepo(pool)
	visitorRepo := pg.NewVisitorRepo(pool)
	otpRepo := pg.NewOtpRepo(pool)

	// ---- Adapters ----
	var sender adapter.MailSender
	if cfg.Mail.Provider == "mailersend" && !cfg.Runtime.Dev {
		sender, err = mail.NewMailerSendSender(cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.FromName)
		if err != nil {
			logger.Fatal().Err(err).Msg("mail adapter init failed")
		}
	} else {
		sender = mail.NewDevSender(logger)
	}

	var blobs adapter.BlobStorage
	if cfg.Storage.Provider == "http" && !cfg.Runtime.Dev {
		blobs, err = storage.NewHTTPStorage(cfg.Storage.Endpoint, cfg.Storage.APIKey, cfg.Storage.PublicURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("storage adapter init failed")
		}
	} else {
		blobs = storage.NewDevStorage(logger)
	}

	// ---- Background pool ----
	taskPool := worker.NewPool(4, logger)
	taskPool.Start(ctx)
	defer taskPool.Stop()

	dispatcher := usecase.NewMailDispatcher(sender, taskPool.Submit, logger)

	// ---- Use cases ----
	quotas := cfg.QuotaTable()
	subUC := usecase.NewSubscriptionUseCase(companyRepo, quotas)
	roomUC := usecase.NewRoomUseCase(roomRepo, bookingRepo, subUC, quotas, tm, locker, logger)
	companyUC := usecase.NewCompanyUseCase(companyRepo, tm, roomUC, cfg.TrialDays, logger)
	bookingUC := usecase.NewBookingUseCase(bookingRepo, roomRepo, subUC, tm, dispatcher, logger)
	visitorUC := usecase.NewVisitorUseCase(visitorRepo, subUC, blobs, dispatcher, logger)
	otpUC := usecase.NewOtpUseCase(otpRepo, visitorUC, cooldown, dispatcher,
		cfg.Otp.CodeTTL, cfg.Otp.ResendCooldown, cfg.Otp.SessionWindow, logger)

	// ---- Tenant API ----
	apiSrv := web.NewServer(companyUC, subUC, roomUC, bookingUC, visitorUC, otpUC, cfg.Security.JWTSecret, logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: apiSrv.Router(cfg.HTTP.RequestTimeout),
	}
	go func() {
		logger.Info().Str("addr", httpSrv.Addr).Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api server stopped")
		}
	}()

	// ---- Billing callback listener ----
	billingSrv := api.NewServer(companyUC, cfg.Billing.CallbackKey, logger)
	billingMux := http.NewServeMux()
	billingSrv.Register(billingMux)
	billingHTTP := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Billing.CallbackPort),
		Handler: api.Chain(billingMux, api.TraceID(), api.RequestLog(logger), api.Recover(logger)),
	}
	go func() {
		logger.Info().Str("addr", billingHTTP.Addr).Msg("billing callback listening")
		if err := billingHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("billing server stopped")
		}
	}()

	// ---- Expiry sweep ----
	sweep := sched.NewSweepWorker(cfg.Sweep.Interval, subUC, otpUC, logger)
	go func() { _ = sweep.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = billingHTTP.Shutdown(shutdownCtx)
}
