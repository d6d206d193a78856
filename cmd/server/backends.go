package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"

	"ehopa/internal/history"
	historyredis "ehopa/internal/history/redis"
	historysqlite "ehopa/internal/history/sqlite"
	"ehopa/internal/notify/kafka"
	"ehopa/internal/photos"
	"ehopa/internal/photos/gcs"
	photos3 "ehopa/internal/photos/s3"
	"ehopa/internal/platform/config"
	"ehopa/internal/platform/redis"
	"ehopa/internal/registration/ports"
)

const topicSetupTimeout = 10 * time.Second

func noClose() error { return nil }

// historyBackend is the selected history store with its lifecycle hooks.
// health is nil for backends without a remote dependency.
type historyBackend struct {
	repo   ports.HistoryRepository
	close  func() error
	health func(ctx context.Context) error
}

// openHistory selects the local history backend.
func openHistory(ctx context.Context, cfg config.Config) (historyBackend, error) {
	switch cfg.History.Driver {
	case "memory":
		return historyBackend{repo: history.NewMemory(), close: noClose}, nil
	case "redis":
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return historyBackend{}, fmt.Errorf("open redis history: %w", err)
		}
		return historyBackend{
			repo:   historyredis.New(client.Client, historyredis.WithKey(cfg.History.Key)),
			close:  client.Close,
			health: client.Health,
		}, nil
	default:
		store, err := historysqlite.New(cfg.History.SQLitePath)
		if err != nil {
			return historyBackend{}, fmt.Errorf("open sqlite history: %w", err)
		}
		return historyBackend{repo: store, close: store.Close}, nil
	}
}

// openArchive selects where submitted photos are kept. A nil archive skips
// archiving.
func openArchive(ctx context.Context, cfg config.Config) (ports.PhotoArchive, func() error, error) {
	switch cfg.Photos.Driver {
	case "memory":
		return photos.NewMemoryArchive(), noClose, nil
	case "gcs":
		a, err := gcs.New(ctx, cfg.Photos.Bucket, cfg.Photos.GCSCredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case "s3":
		a, err := photos3.New(ctx, photos3.Config{
			Bucket:          cfg.Photos.Bucket,
			Region:          cfg.Photos.S3Region,
			Endpoint:        cfg.Photos.S3Endpoint,
			PathStyle:       cfg.Photos.S3PathStyle,
			AccessKeyID:     cfg.Photos.S3AccessKeyID,
			SecretAccessKey: cfg.Photos.S3SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, noClose, nil
	default:
		return nil, noClose, nil
	}
}

type notifiers struct {
	// shared is the process-wide notifier; nil when only per-form channels
	// are enabled.
	shared   ports.Notifier
	kafka    *kafka.Notifier
	whatsapp bool
	close    func() error
}

func openNotifiers(ctx context.Context, cfg config.Config, log *slog.Logger) (notifiers, error) {
	out := notifiers{
		whatsapp: slices.Contains(cfg.Notify.Channels, "whatsapp"),
		close:    noClose,
	}
	if !slices.Contains(cfg.Notify.Channels, "kafka") {
		return out, nil
	}

	client, err := kafka.NewClient(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
	if err != nil {
		return out, err
	}
	setupCtx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
	defer cancel()
	if err := kafka.EnsureTopic(setupCtx, kadm.NewClient(client), cfg.Notify.KafkaTopic, 1, 1); err != nil {
		log.Warn("kafka topic setup failed, relying on auto-creation",
			"topic", cfg.Notify.KafkaTopic,
			"error", err,
		)
	}

	out.kafka = kafka.New(client, cfg.Notify.KafkaTopic, kafka.WithLogger(log))
	out.shared = out.kafka
	out.close = func() error {
		client.Close()
		return nil
	}
	return out, nil
}
