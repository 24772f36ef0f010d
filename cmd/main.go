package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	glog "github.com/labstack/gommon/log"

	"kadha/pkg/config"
	"kadha/pkg/server"
	"kadha/pkg/store"
	"kadha/pkg/workshop"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("could not load configuration", "error", err)
	}
	log.SetLevel(cfg.Level())
	log.SetReportTimestamp(true)
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("could not open database", "error", err)
	}

	gen, err := cfg.NewGenerator(ctx)
	if err != nil {
		log.Fatal("could not create generator", "provider", cfg.Provider, "error", err)
	}
	if m, ok := gen.(interface{ Model() string }); ok {
		log.Info("generator ready", "provider", cfg.Provider, "model", m.Model())
	}

	ws := workshop.New(st, gen, workshop.Options{
		TargetWords:      cfg.TargetWords,
		ChunkWords:       cfg.ChunkWords,
		BatchConcurrency: cfg.BatchConcurrency,
		SummaryPage:      cfg.SummaryPage,
		Narrative:        cfg.Narrative(),
	})

	srv := server.NewServer(st, ws)
	srv.TotalParts = cfg.TotalParts
	if cfg.Level() <= log.DebugLevel {
		srv.Echo.Logger.SetLevel(glog.DEBUG)
	} else {
		srv.Echo.Logger.SetLevel(glog.INFO)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
		close(finishedShutDown)
	}()

	if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-finishedShutDown
}
