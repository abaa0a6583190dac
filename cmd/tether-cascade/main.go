// Command tether-cascade is the Lambda function subscribed to the principal
// table's DynamoDB stream. It deletes attached entities once their principal
// is soft-deleted.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/tether/internal/backend"
	"github.com/jacentio/tether/internal/config"
	"github.com/jacentio/tether/stream"
)

func main() {
	cfg, err := config.Load(os.Getenv("TETHER_CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)

	b, err := backend.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}

	handler := stream.NewHandler(b.Registry, logger)
	lambda.Start(handler.HandleCascadeDelete)
}
