package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fairdatause/qualify-api/internal/application/qualify"
	"github.com/fairdatause/qualify-api/internal/config"
	"github.com/fairdatause/qualify-api/internal/currency"
	"github.com/fairdatause/qualify-api/internal/domain"
	amqpinfra "github.com/fairdatause/qualify-api/internal/infrastructure/amqp"
	"github.com/fairdatause/qualify-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/fairdatause/qualify-api/internal/infrastructure/jwt"
	"github.com/fairdatause/qualify-api/internal/infrastructure/memory"
	"github.com/fairdatause/qualify-api/internal/infrastructure/postgres"
	"github.com/fairdatause/qualify-api/internal/infrastructure/reddit"
	redisinfra "github.com/fairdatause/qualify-api/internal/infrastructure/redis"
	s3infra "github.com/fairdatause/qualify-api/internal/infrastructure/s3"
	"github.com/fairdatause/qualify-api/internal/infrastructure/slack"
	"github.com/fairdatause/qualify-api/internal/infrastructure/smtp"
	"github.com/fairdatause/qualify-api/internal/infrastructure/sns"
	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/fairdatause/qualify-api/internal/metrics"
	"github.com/fairdatause/qualify-api/internal/notify"
	transporthttp "github.com/fairdatause/qualify-api/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type applicantStore interface {
	FindByContact(ctx context.Context, email, phone string) (*domain.Applicant, error)
	Get(ctx context.Context, applicantID string) (*domain.Applicant, error)
	Create(ctx context.Context, a *domain.Applicant) error
	RecordContractorRequest(ctx context.Context, applicantID string, at time.Time) error
}

type application struct {
	deps    *transporthttp.Deps
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// wire builds every dependency from cfg. Optional integrations that are not
// configured are skipped with a log line; a configured one that fails to
// start is fatal.
func wire(ctx context.Context, cfg *config.Config) (*application, error) {
	app := &application{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(registry)

	store, err := openStore(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}

	var checker reddit.Checker = reddit.NewClient(reddit.Config{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		Timeout:      cfg.HTTPClientTimeout,
	})
	if redisClient != nil {
		checker = reddit.NewCachedChecker(checker, redisinfra.NewCache(redisClient, "reddit:"), cfg.RedditCacheTTL)
	}

	var publisher *amqpinfra.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = amqpinfra.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = publisher.Close() })
	}

	fanout, err := buildNotifier(ctx, cfg, rec, publisher)
	if err != nil {
		return nil, err
	}

	deps := qualify.ServiceDeps{
		Applicants: store,
		Reddit:     checker,
		Notifier:   fanout,
		Metrics:    rec,
	}
	if publisher != nil {
		deps.Events = publisher
	}
	if cfg.S3BucketName != "" {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.Archive = s3infra.NewArchive(s3Client, cfg.S3BucketName)
	}

	detector := currency.NewDetector(currencyConfig(cfg), nil)
	if redisClient != nil {
		detector = currency.NewDetector(currencyConfig(cfg), redisinfra.NewCache(redisClient, "currency:"))
	}

	app.deps = &transporthttp.Deps{
		Qualify:  qualify.NewService(deps),
		Currency: detector,
		Metrics:  rec,
		Gatherer: registry,
	}
	if p, err := jwtinfra.NewProvider(cfg.SupabaseJWTSecret); err == nil {
		app.deps.Tokens = p
	} else {
		logger.LogWarn("bearer authentication disabled", zap.Error(err))
	}
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config, app *application) (applicantStore, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pingDB(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		return postgres.NewApplicantRepo(db), nil

	case config.StorageDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return dynamo.NewApplicantRepo(client, cfg.DynamoTables.Applicants), nil

	case config.StorageMemory:
		logger.LogWarn("using in-memory storage; applicants are lost on restart")
		return memory.NewApplicantRepo(), nil

	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func pingDB(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// buildNotifier registers every configured channel. Slack is the channel of
// record, so only its failures fail a contractor request.
func buildNotifier(ctx context.Context, cfg *config.Config, rec metrics.Recorder, publisher *amqpinfra.Publisher) (*notify.Fanout, error) {
	fanout := notify.NewFanout(rec)

	if cfg.SlackWebhookURL != "" {
		hook, err := slack.NewWebhook(cfg.SlackWebhookURL, cfg.HTTPClientTimeout)
		if err != nil {
			return nil, err
		}
		fanout.Add(notify.Slack{Webhook: hook}, true)
	} else {
		logger.LogWarn("SLACK_WEBHOOK_URL not set; contractor requests will not reach Slack")
	}

	if cfg.ContractorAlertPhone != "" {
		sender, err := sns.NewSender(ctx, cfg)
		if err != nil {
			return nil, err
		}
		fanout.Add(notify.SMS{Sender: sender, To: cfg.ContractorAlertPhone}, false)
	}

	if cfg.ContractorAlertEmail != "" && cfg.SMTPHost != "" {
		fanout.Add(notify.Email{Mailer: smtp.NewMailer(cfg), To: cfg.ContractorAlertEmail}, false)
	}

	if publisher != nil {
		fanout.Add(notify.Event{Publisher: publisher}, false)
	}

	logger.LogInfo("contractor notification channels ready", zap.Int("channels", fanout.Len()))
	return fanout, nil
}

func currencyConfig(cfg *config.Config) currency.Config {
	return currency.Config{
		GeoIPURL:        cfg.GeoIPURL,
		ExchangeRateURL: cfg.ExchangeRateURL,
		Timeout:         cfg.HTTPClientTimeout,
		CacheTTL:        cfg.CurrencyCacheTTL,
	}
}
