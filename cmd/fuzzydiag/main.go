package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/respira-diag/fuzzydx/internal/diagnosis"
	"github.com/respira-diag/fuzzydx/internal/knowledge"
	"github.com/respira-diag/fuzzydx/internal/shared/config"
	"github.com/respira-diag/fuzzydx/internal/shared/logging"
)

// App holds all application dependencies
type App struct {
	Config  *config.Config
	Log     *logrus.Logger
	Source  knowledge.Source
	Store   *knowledge.Store
	Service *diagnosis.Service
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("fuzzydiag stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx := context.Background()

	opts, err := diagnosis.OptionsFromConfig(cfg.Inference)
	if err != nil {
		return fmt.Errorf("inference config: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	source, closeSource, err := knowledge.Open(openCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer closeSource()

	store := knowledge.NewStore(source, log)
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	_, err = store.Reload(loadCtx)
	cancel()
	if err != nil {
		// /ready stays red until an admin reload succeeds
		log.WithError(err).Warn("starting without a knowledge base")
	}

	app := &App{
		Config:  cfg,
		Log:     log,
		Source:  source,
		Store:   store,
		Service: diagnosis.NewService(store, opts, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(app),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("server shutdown error")
		}
		close(done)
	}()

	log.WithFields(logrus.Fields{
		"env":      cfg.Server.Env,
		"addr":     srv.Addr,
		"source":   source.Name(),
		"strategy": opts.Strategy,
		"top_n":    opts.TopN,
	}).Info("fuzzydiag listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	log.Info("server stopped")
	return nil
}
