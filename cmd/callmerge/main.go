package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/getsentry/callgraph/internal/aggregate"
	"github.com/getsentry/callgraph/internal/logutil"
	"github.com/getsentry/callgraph/internal/measurements"
	"github.com/getsentry/callgraph/internal/nodetree"
	"github.com/getsentry/callgraph/internal/storageutil"
	"github.com/getsentry/callgraph/internal/summary"
)

var release string

// messageWriter is the part of kafka.Writer used to publish summaries.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type environment struct {
	config  ServiceConfig
	storage storageutil.ObjectHandler
	writer  messageWriter
}

// run reads the raw profiles stored under objects, merges their call trees
// and writes the consolidated profile. It returns the name of the written
// object.
func (e *environment) run(ctx context.Context, objects []string) (string, error) {
	span := sentry.StartSpan(ctx, "aggregate", sentry.TransactionName("callmerge"))
	defer span.Finish()
	ctx = span.Context()

	modes, err := measurements.ParseModes(e.config.Measures)
	if err != nil {
		return "", err
	}
	s := aggregate.NewSession(modes)
	for _, objectName := range objects {
		var p nodetree.Profile
		err := storageutil.UnmarshalCompressed(ctx, e.storage, objectName, &p)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", objectName, err)
		}
		if err := s.AddProfile(p); err != nil {
			return "", err
		}
		log.Debug().Str("object", objectName).Int("threads", len(p.Threads)).Msg("profile loaded")
	}

	if _, err := s.Consolidate(); err != nil {
		return "", err
	}

	outputName := path.Join(e.config.OutputPrefix, s.ID+".json.lz4")
	if err := storageutil.CompressedWrite(ctx, e.storage, outputName, s.Profile()); err != nil {
		return "", fmt.Errorf("writing %s: %w", outputName, err)
	}
	metricsName := path.Join(e.config.OutputPrefix, s.ID+".methods.json.lz4")
	err = storageutil.CompressedWrite(ctx, e.storage, metricsName, s.Metrics(e.config.MaxUniqueMethods))
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", metricsName, err)
	}

	if e.writer != nil {
		messages, err := summary.GenerateKafkaMessageBatch(s.Summaries())
		if err != nil {
			return "", err
		}
		if err := e.writer.WriteMessages(ctx, messages...); err != nil {
			return "", fmt.Errorf("publishing summaries: %w", err)
		}
	}

	log.Info().
		Str("session_id", s.ID).
		Str("output", outputName).
		Int("profiles", len(objects)).
		Msg("aggregation written")
	return outputName, nil
}

func newKafkaWriter(cfg ServiceConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Balancer:     kafka.CRC32Balancer{},
		BatchSize:    10,
		Compression:  kafka.Lz4,
		ReadTimeout:  3 * time.Second,
		Topic:        cfg.KafkaTopic,
		WriteTimeout: 3 * time.Second,
	}
}

// aggregateObjects sets up the storage and the kafka writer, runs the
// aggregation and releases everything before returning.
func aggregateObjects(cfg ServiceConfig, objects []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handler, closeStorage, err := openStorage(ctx, cfg.BucketURL)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.BucketURL, err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error closing storage")
		}
	}()

	env := environment{config: cfg, storage: handler}
	if len(cfg.KafkaBrokers) > 0 {
		w := newKafkaWriter(cfg)
		defer func() {
			if err := w.Close(); err != nil {
				sentry.CaptureException(err)
				log.Err(err).Msg("error closing kafka writer")
			}
		}()
		env.writer = w
	}

	_, err = env.run(ctx, objects)
	return err
}

func main() {
	cfg, err := readConfig()
	if err != nil {
		logutil.ConfigureLogger(logutil.ParseLevel("info"))
		log.Fatal().Err(err).Msg("can't read configuration")
	}
	logutil.ConfigureLogger(logutil.ParseLevel(cfg.LogLevel))

	objects := os.Args[1:]
	if len(objects) == 0 {
		log.Fatal().Msg("usage: callmerge <profile object>...")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		EnableTracing:    true,
		Environment:      cfg.Environment,
		Release:          release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	err = aggregateObjects(cfg, objects)
	if err != nil {
		sentry.CaptureException(err)
		log.Error().Err(err).Msg("aggregation failed")
	}
	sentry.Flush(5 * time.Second)
	if err != nil {
		os.Exit(1)
	}
}
