// Package history persists successful publish outcomes. The store is an
// optional collaborator: it is best-effort audit trail, never part of the
// acknowledgment decision.
package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"app/internal/config"
	"app/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
)

type Store interface {
	RecordPost(ctx context.Context, rec model.PublishHistoryRecord) error
}

// New selects a store implementation from config. An empty backend
// returns nil: the caller treats a nil store as recording disabled.
func New(cfg *config.Config, awsCfg aws.Config) (Store, error) {
	switch cfg.HistoryBackend {
	case "":
		return nil, nil
	case "dynamodb":
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWSEndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			}
		})
		return NewDynamoStore(client, cfg.HistoryTable), nil
	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.HistoryBackend)
	}
}
