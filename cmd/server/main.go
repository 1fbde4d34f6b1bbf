package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"autoshop/internal/api"
	"autoshop/internal/config"
	"autoshop/internal/guard"
	"autoshop/internal/infrastructure/logger"
	"autoshop/internal/infrastructure/mysql"
	"autoshop/internal/notify"
	"autoshop/internal/order"
	"autoshop/internal/page"
	"autoshop/internal/server"
	"autoshop/internal/session"
	sessionrepo "autoshop/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, zapLogger)
	resources := api.NewResources(client)
	authClient := api.NewAuthClient(client)

	tokens := sessionrepo.NewMySQLTokenRepository(db)
	sessions := session.NewRegistry(authClient, tokens, zapLogger, cfg.Session.RestoreTimeout)
	routeGuard := guard.New(zapLogger)
	sessions.OnEvict(routeGuard.Forget)
	sessions.StartSweeper(ctx, cfg.Session.SweepInterval, cfg.Session.TTL)

	hub := notify.NewHub(zapLogger)
	recent := notify.NewRecent(hub, cfg.Notify.RecentSize)
	defer recent.Close()
	if cfg.Notify.StreamURL != "" {
		go hub.Run(ctx, notify.NewStreamSource(cfg.Notify.StreamURL, cfg.Notify.StreamToken, zapLogger))
	} else {
		zapLogger.Info("notification stream disabled")
	}

	orderModule := order.NewModule(resources.Orders, cfg.Billing.TaxRate, zapLogger)
	pages := page.NewHandler(resources, orderModule.UseCase, authClient, zapLogger)

	router := server.NewRouter(server.Modules{
		Sessions:  sessions,
		Guard:     routeGuard,
		Pages:     pages,
		Orders:    orderModule.Controller,
		Auth:      server.NewAuthController(authClient, zapLogger),
		Resources: resources,
		Notify:    notify.NewHandlers(hub, recent, zapLogger),
	}, server.Options{
		CookieName:     cfg.Session.CookieName,
		CookieSecure:   cfg.Session.CookieSecure,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
