package store

import (
	"context"
	"fmt"

	"github.com/crazyskateface/workbrew-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*DynamoStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open builds the store selected by cfg.StoreDriver. The returned func
// releases its connections.
func Open(ctx context.Context, cfg config.Config, indexes ...IndexSpec) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return NewMemoryStore(), func() {}, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DBSource)
		if err != nil {
			return nil, nil, fmt.Errorf("store: cannot connect to db: %w", err)
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx, indexes...); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDBRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("store: failed to load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		return NewDynamoStore(client), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", cfg.StoreDriver)
	}
}
