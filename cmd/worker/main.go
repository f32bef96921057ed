package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/executor"
	"app/internal/history"
	"app/internal/idempotency"
	"app/internal/logger"
	"app/internal/media"
	"app/internal/queue"
	"app/internal/worker"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// AWS config; custom endpoints (local stacks) get static credentials
	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSEndpointURL != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		logger.Fatal().Msgf("Failed to load AWS config: %v", err)
	}

	// Queue client; the queue URL is resolved once here
	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	q, err := queue.New(ctx, sqsClient, cfg.QueueName, cfg.BatchSize, cfg.WaitTimeSec, cfg.VisibilityTimeoutSec)
	if err != nil {
		logger.Fatal().Msgf("Failed to resolve queue: %v", err)
	}
	logger.Info().Str("queue", cfg.QueueName).Msg("Queue resolved")

	// Idempotency cache; optional, guard degrades to fail-open without it
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cache.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unreachable at startup; idempotency guard is fail-open")
		}
	} else {
		logger.Warn().Msg("No REDIS_ADDR configured; idempotency guard is fail-open")
	}
	guard := idempotency.NewGuard(cache, time.Duration(cfg.IdempotencyTTLSec)*time.Second, logger)

	// Publish-history store; optional
	store, err := history.New(cfg, awsCfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize history store: %v", err)
	}
	if store == nil {
		logger.Info().Msg("Publish history recording disabled")
	}

	// Media presigner; optional
	var resolver worker.MediaResolver
	if cfg.MediaPresign {
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AWSEndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
				o.UsePathStyle = true
			}
		})
		resolver = media.NewResolver(s3.NewPresignClient(s3Client), time.Duration(cfg.MediaPresignExpirySec)*time.Second)
	}

	exec := executor.NewProcessExecutor(cfg.ExecutorBin, time.Duration(cfg.ExecutorTimeoutSec)*time.Second, logger)

	w := worker.New(q, guard, exec, store, resolver,
		cfg.VisibilityTimeoutSec,
		time.Duration(cfg.ReceiveErrorSleepSec)*time.Second,
		logger,
	)
	if err := w.Run(ctx); err != nil {
		logger.Fatal().Msgf("Worker failed: %v", err)
	}

	logger.Info().Msg("Worker stopped gracefully")
}
