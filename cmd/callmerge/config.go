package main

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type (
	ServiceConfig struct {
		Environment string `env:"SENTRY_ENVIRONMENT" env-default:"development"`
		SentryDSN   string `env:"SENTRY_DSN"`
		LogLevel    string `env:"CALLMERGE_LOG_LEVEL" env-default:"info"`

		// BucketURL selects the storage provider: gs:// uses Google Cloud
		// Storage, badger:// a local badger database, anything else is opened
		// as a gocloud bucket (file://, mem://).
		BucketURL    string   `env:"CALLMERGE_BUCKET_URL" env-default:"file:///var/lib/sentry-profiles"`
		OutputPrefix string   `env:"CALLMERGE_OUTPUT_PREFIX" env-default:"consolidated"`
		Measures     []string `env:"CALLMERGE_MEASURES" env-default:"wall_time" env-separator:","`
		// MaxUniqueMethods caps the method metrics written per mode.
		MaxUniqueMethods uint `env:"CALLMERGE_MAX_UNIQUE_METHODS" env-default:"100"`

		KafkaBrokers []string `env:"CALLMERGE_KAFKA_BROKERS" env-separator:","`
		KafkaTopic   string   `env:"CALLMERGE_KAFKA_TOPIC" env-default:"profiles-call-tree-summaries"`
	}
)

func readConfig() (ServiceConfig, error) {
	var cfg ServiceConfig
	err := cleanenv.ReadEnv(&cfg)
	return cfg, err
}
