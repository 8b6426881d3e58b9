package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contest-tracker/internal/config"
	"contest-tracker/internal/platform/database"
	"contest-tracker/internal/platform/logger"
	rabbitmqClient "contest-tracker/internal/platform/rabbitmq"
	redisClient "contest-tracker/internal/platform/redis"
	"contest-tracker/internal/repository"
	"contest-tracker/internal/worker"
)

type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	AuditWorker *worker.ContestAuditWorker

	StartedAt time.Time
}

// LoadConfig reads the configuration and applies its logging settings.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if err := logger.Configure(cfg.Log); err != nil {
		return nil, fmt.Errorf("configure logger failed: %w", err)
	}
	return cfg, nil
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, StartedAt: time.Now()}
	if err := app.connect(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) connect(ctx context.Context) error {
	db, err := database.Open(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	redisCli, err := redisClient.New(ctx, a.Config.Redis)
	if err != nil {
		return err
	}
	a.Redis = redisCli

	if a.Config.RabbitMQ.URL == "" {
		log.Warn("rabbitmq url not set, contest audit events disabled")
		return nil
	}

	mqConn, err := rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL)
	if err != nil {
		return err
	}
	a.MQConn = mqConn

	auditRepo := repository.NewContestAuditRepository(db)
	auditWorker := worker.NewContestAuditWorker(mqConn, auditRepo, a.Config.RabbitMQ.AuditEventQueue)
	if err := auditWorker.Start(ctx); err != nil {
		return fmt.Errorf("start contest audit worker failed: %w", err)
	}
	a.AuditWorker = auditWorker
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
