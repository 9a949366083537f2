package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engunity-ai/engunity/internal/bootstrap"
	"github.com/engunity-ai/engunity/internal/config"
	"github.com/engunity-ai/engunity/internal/modules/handler"
	"github.com/engunity-ai/engunity/internal/router"
	"github.com/samber/do"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

func main() {
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer log.Sync()

	r := router.NewRouter(router.RouterDeps{
		Config:          cfg,
		Log:             log,
		DocumentHandler: do.MustInvoke[*handler.DocumentHandler](inj),
		ChatHandler:     do.MustInvoke[*handler.ChatHandler](inj),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: r,
	}

	go func() {
		log.Info("server starting",
			zap.String("app", cfg.App.Name),
			zap.Int("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	if mdb, err := do.Invoke[*mongo.Database](inj); err == nil {
		if err := mdb.Client().Disconnect(ctx); err != nil {
			log.Error("mongo disconnect failed", zap.Error(err))
		}
	}

	if err := inj.Shutdown(); err != nil {
		log.Error("container shutdown failed", zap.Error(err))
	}
}
