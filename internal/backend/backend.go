// Package backend opens the configured document store and wires the user
// services and the cascade registry on top of it.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/tether/attach"
	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/internal/config"
	"github.com/jacentio/tether/memstore"
	"github.com/jacentio/tether/mongostore"
	"github.com/jacentio/tether/service"
	"github.com/jacentio/tether/store"
	"github.com/jacentio/tether/user"
)

// Backend holds the services built over one document store.
type Backend struct {
	Principals *attach.Principal[*user.PrincipalEntity]
	AuthTypes  *service.Service[*user.AuthTypeEntity]
	Registry   *attach.Registry

	close func(context.Context) error
}

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	principals, authTypes, closeFn, err := openCollections(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("backend opened",
		"backend", cfg.Backend,
		"principals", principals.Name(),
		"authTypes", authTypes.Name(),
	)
	return New(principals, authTypes, closeFn, logger), nil
}

// New builds a Backend over already opened collections. closeFn may be nil.
func New(principals, authTypes docstore.Collection, closeFn func(context.Context) error, logger *slog.Logger) *Backend {
	b := &Backend{
		Principals: user.NewPrincipalService(principals, logger),
		AuthTypes:  user.NewAuthTypeService(authTypes, logger),
		Registry:   attach.NewRegistry(logger),
		close:      closeFn,
	}
	user.RegisterCascade(b.Registry, b.Principals, b.AuthTypes)
	return b
}

// Close releases the underlying connection, if any.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

func openCollections(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Collection, docstore.Collection, func(context.Context) error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		db := memstore.New()
		return db.Collection(cfg.PrincipalsCollection()), db.Collection(cfg.AuthTypesCollection()), nil, nil

	case config.BackendDynamoDB:
		client, err := NewDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		s := store.New(client, store.Config{
			ConsistentRead: cfg.DynamoDBConsistentRead,
			PageSize:       cfg.DynamoDBPageSize,
		})
		return s.Collection(cfg.PrincipalsCollection()), s.Collection(cfg.AuthTypesCollection()), nil, nil

	case config.BackendMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoMaxPoolSize, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open mongo backend: %w", err)
		}
		return db.Collection(cfg.PrincipalsCollection()), db.Collection(cfg.AuthTypesCollection()), db.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewDynamoDBClient loads AWS credentials from the environment and applies
// the region and endpoint overrides from cfg.
func NewDynamoDBClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.DynamoDBRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.DynamoDBRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}
