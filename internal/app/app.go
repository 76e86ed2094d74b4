package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/config"
	"github.com/ryanadiyantara/librasys/internal/events"
	"github.com/ryanadiyantara/librasys/internal/handler"
	"github.com/ryanadiyantara/librasys/internal/repository"
	"github.com/ryanadiyantara/librasys/internal/server"
	"github.com/ryanadiyantara/librasys/internal/service"
	"github.com/ryanadiyantara/librasys/migrations"
	"github.com/ryanadiyantara/librasys/pkg/auth"
	"github.com/ryanadiyantara/librasys/pkg/kafka"
	"github.com/ryanadiyantara/librasys/pkg/logger"
	"github.com/ryanadiyantara/librasys/pkg/mailer"
	"github.com/ryanadiyantara/librasys/pkg/postgres"
	"github.com/ryanadiyantara/librasys/pkg/upload"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "librasys")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var publisher service.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer producer.Close()
		publisher = events.NewPublisher(producer, log)
	}

	tokens := auth.NewTokenManager(cfg.JWT)
	files, err := upload.NewStore(cfg.App.UploadDir)
	if err != nil {
		log.Fatal("upload store", zap.Error(err))
	}

	svc := service.New(repo, tokens, mailer.New(cfg.SMTP), publisher, service.Config{
		BaseURL:         cfg.App.BaseURL,
		DefaultPassword: cfg.App.DefaultPassword,
	}, log)

	h := handler.New(svc.Auth, svc.Books, svc.Members, svc.Loans, tokens, files, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
