package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-crash/internal/config"
	"go-crash/internal/crash"
	place_bet "go-crash/internal/http-server/handlers/crash/bet"
	"go-crash/internal/http-server/handlers/crash/cashout"
	"go-crash/internal/http-server/handlers/crash/state"
	"go-crash/internal/http-server/handlers/event"
	"go-crash/internal/http-server/handlers/job"
	"go-crash/internal/http-server/handlers/mysql"
	"go-crash/internal/http-server/handlers/user/balance"
	mwlogger "go-crash/internal/http-server/middleware/logger"
	"go-crash/internal/lib/logger/handler/slogpretty"
	"go-crash/internal/lib/logger/sl"
	"go-crash/internal/repository"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting server...", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := sql.Open("mysql", cfg.Storage.DSN)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)

	pub, err := setupPublisher(cfg, log)
	if err != nil {
		log.Error("Failed to init broadcast sink", sl.Err(err))
		os.Exit(1)
	}

	recorder := state.NewRecorder(log, pub)

	job.Queue = make(job.JobQueue, 100)
	job.NewWorkerPool(4, job.Queue).Start()

	userRepo := repository.NewUserRepository(*handler)
	ledgerRepo := repository.NewLedgerRepository(*handler)
	roundRepo := repository.NewCrashRoundRepository(*handler)

	engine := crash.NewEngine(
		log,
		cfg.Crash,
		userRepo,
		ledgerRepo,
		roundRepo,
		recorder,
		job.NewRetryFunc(log),
	)

	engine.Start()

	betHandler := place_bet.NewBet(log, engine)
	cashoutHandler := cashout.New(log, engine)
	stateHandler := state.New(log, engine)
	verifyHandler := state.NewVerify(log, engine)
	roundHandler := state.NewRound(log, roundRepo)
	balanceHandler := balance.New(log, userRepo)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/crash/place-bet", betHandler.New())
	router.Post("/crash/cash-out", cashoutHandler.New())
	router.Get("/crash/state", stateHandler.New())
	router.Get("/crash/history", recorder.History())
	router.Post("/crash/verify", verifyHandler.New())
	router.Get("/crash/round/{uuid}", roundHandler.New())
	router.Get("/user/{uuid}/balance", balanceHandler.New())

	log.Info("Server started", slog.String("address", cfg.Address))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
		}
	}()

	<-done
	log.Info("Stopping server...")

	engine.Stop()

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("Failed to stop server", sl.Err(err))
	}

	log.Info("Server stopped")
}

func setupPublisher(cfg *config.Config, log *slog.Logger) (crash.Publisher, error) {
	if cfg.Pusher.Enabled {
		client := &pusher.Client{
			AppID:   cfg.Pusher.AppID,
			Key:     cfg.Pusher.Key,
			Secret:  cfg.Pusher.Secret,
			Cluster: cfg.Pusher.Cluster,
		}

		return event.NewPusherEvent(log, client), nil
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+cfg.WSServer.Address+"/ws?room=crash", nil)
	if err != nil {
		return nil, err
	}

	return event.NewWSEvent(log, conn), nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
