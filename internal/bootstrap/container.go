package bootstrap

import (
	"context"
	"time"

	"github.com/engunity-ai/engunity/internal/config"
	"github.com/engunity-ai/engunity/internal/infra/blob"
	"github.com/engunity-ai/engunity/internal/infra/db"
	"github.com/engunity-ai/engunity/internal/infra/docstore"
	"github.com/engunity-ai/engunity/internal/infra/logger"
	"github.com/engunity-ai/engunity/internal/modules/handler"
	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/engunity-ai/engunity/internal/modules/repo"
	"github.com/engunity-ai/engunity/internal/modules/service"
	"github.com/samber/do"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := d.AutoMigrate(&model.Document{}); err != nil {
				return nil, err
			}
		}
		return d, nil
	})

	// Mongo
	do.Provide(inj, func(i *do.Injector) (*mongo.Database, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return docstore.New(cfg)
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})
	do.Provide(inj, func(i *do.Injector) (blob.Store, error) {
		return do.MustInvoke[*blob.S3Deps](i), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.DocumentRepo, error) {
		return repo.NewDocumentRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ChatRepo, error) {
		return repo.NewChatRepo(do.MustInvoke[*mongo.Database](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.ChatService, error) {
		return service.NewChatService(
			do.MustInvoke[repo.ChatRepo](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.DocumentService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewDocumentService(
			do.MustInvoke[repo.DocumentRepo](i),
			do.MustInvoke[blob.Store](i),
			do.MustInvoke[service.ChatService](i),
			time.Duration(cfg.S3.PresignExpireSec)*time.Second,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.DocumentHandler, error) {
		return handler.NewDocumentHandler(do.MustInvoke[service.DocumentService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ChatHandler, error) {
		return handler.NewChatHandler(
			do.MustInvoke[service.ChatService](i),
			do.MustInvoke[service.DocumentService](i),
		), nil
	})

	return inj
}
