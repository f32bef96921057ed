package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	QueueName            string `envconfig:"QUEUE_NAME" required:"true"`
	VisibilityTimeoutSec int    `envconfig:"VISIBILITY_TIMEOUT_SEC" default:"120" validate:"min=1,max=43200"`
	WaitTimeSec          int    `envconfig:"WAIT_TIME_SEC" default:"20" validate:"min=0,max=20"`
	BatchSize            int    `envconfig:"BATCH_SIZE" default:"5" validate:"min=1,max=10"`
	ReceiveErrorSleepSec int    `envconfig:"RECEIVE_ERROR_SLEEP_SEC" default:"2" validate:"min=1"`

	ExecutorBin        string `envconfig:"EXECUTOR_BIN" required:"true"`
	ExecutorTimeoutSec int    `envconfig:"EXECUTOR_TIMEOUT_SEC" default:"600" validate:"min=1"`

	// Idempotency cache; the guard degrades to fail-open when unset.
	RedisAddr         string `envconfig:"REDIS_ADDR"`
	IdempotencyTTLSec int    `envconfig:"IDEMPOTENCY_TTL_SEC" default:"604800" validate:"min=60"`

	// Publish-history store; empty backend disables recording.
	HistoryBackend string `envconfig:"HISTORY_BACKEND" validate:"omitempty,oneof=dynamodb postgres"`
	HistoryTable   string `envconfig:"HISTORY_TABLE" default:"publish-history"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`

	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpointURL string `envconfig:"AWS_ENDPOINT_URL"`

	MediaPresign          bool   `envconfig:"MEDIA_PRESIGN" default:"false"`
	MediaBucket           string `envconfig:"MEDIA_BUCKET"`
	MediaPresignExpirySec int    `envconfig:"MEDIA_PRESIGN_EXPIRY_SEC" default:"3600" validate:"min=60"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
