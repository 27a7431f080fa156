package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-mailings/app/lock"
	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/preparer"
	"github.com/vibast-solutions/ms-go-mailings/app/provider"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
	"github.com/vibast-solutions/ms-go-mailings/config"
)

func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLMaxLife)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func openRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

func buildLocker(cfg *config.Config, db *sql.DB, rdb *redis.Client) lock.Locker {
	if strings.EqualFold(cfg.LockBackend, "mysql") {
		return lock.NewMySQLLocker(db)
	}
	return lock.NewRedisLocker(rdb)
}

func buildEmailProvider(cfg *config.Config) (provider.EmailProvider, error) {
	switch strings.ToLower(cfg.EmailProvider) {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return provider.NewSESProvider(awsCfg, cfg.SenderEmail), nil
	case "smtp":
		return provider.NewSMTPProvider(cfg.SMTPAddr, cfg.SenderEmail, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPStartTLS), nil
	case "", "noop":
		return provider.NewNoopProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.EmailProvider)
	}
}

func buildPreparer(cfg *config.Config) preparer.EmailPreparer {
	return preparer.NewChain(
		preparer.NewHeaderStep(senderDomain(cfg.SenderEmail)),
		preparer.NewRawPreparer(cfg.SenderEmail),
	)
}

func senderDomain(sender string) string {
	addr, err := mail.ParseAddress(sender)
	if err == nil {
		sender = addr.Address
	}
	if at := strings.LastIndex(sender, "@"); at >= 0 && at < len(sender)-1 {
		return sender[at+1:]
	}
	return "localhost"
}

func buildDispatchService(cfg *config.Config, db *sql.DB, rdb *redis.Client, m *metrics.Metrics, logger logrus.FieldLogger) (*service.DispatchService, error) {
	emailProvider, err := buildEmailProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("build email provider: %w", err)
	}

	return service.NewDispatchService(
		repository.NewMailingRepository(db),
		repository.NewMailRepository(db),
		repository.NewLogRepository(db),
		buildPreparer(cfg),
		emailProvider,
		buildLocker(cfg, db, rdb),
		m,
		logger,
		service.DispatchConfig{
			LockTTL:     cfg.LockTTL,
			ClaimTTL:    cfg.ClaimTTL,
			SendTimeout: cfg.SendTimeout,
			SendRate:    cfg.SendRate,
			SendBurst:   cfg.SendBurst,
		},
	), nil
}
