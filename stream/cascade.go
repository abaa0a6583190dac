// Package stream provides DynamoDB Streams handlers for cascade operations.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/tether/attach"
)

// Handler processes DynamoDB stream events for cascade deletes.
type Handler struct {
	registry *attach.Registry
	logger   *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(registry *attach.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

// HandleCascadeDelete detaches entities attached to records that were just
// soft-deleted. This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleCascadeDelete(ctx context.Context, event events.DynamoDBEvent) error {
	for i := range event.Records {
		record := &event.Records[i]
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record *events.DynamoDBEventRecord) error {
	// Only process MODIFY events where TTL was added
	if record.EventName != "MODIFY" {
		return nil
	}

	oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
	newTTL := getNumberAttr(record.Change.NewImage, "ttl")

	// Only process when TTL is newly set (was absent/0, now present)
	if oldTTL != 0 || newTTL == 0 {
		return nil
	}

	table := tableFromARN(record.EventSourceArn)
	if table == "" {
		return fmt.Errorf("no table in event source ARN %q", record.EventSourceArn)
	}
	id := getStringAttr(record.Change.Keys, "id")
	if id == "" {
		id = getStringAttr(record.Change.NewImage, "id")
	}
	if id == "" {
		return fmt.Errorf("record from %s has no id", table)
	}

	if h.registry == nil || !h.registry.HasDetachers(table) {
		h.logger.Debug("no attachments registered", "table", table, "id", id)
		return nil
	}

	h.logger.Info("processing cascade delete",
		"table", table,
		"id", id,
		"ttl", newTTL,
	)

	n, err := h.registry.Detach(ctx, table, id)
	if err != nil {
		return fmt.Errorf("cascade %s/%s: %w", table, id, err)
	}

	h.logger.Info("cascade delete completed",
		"table", table,
		"id", id,
		"detached", n,
	)
	return nil
}

// tableFromARN returns the table name of a stream ARN of the form
// arn:aws:dynamodb:region:account:table/NAME/stream/LABEL.
func tableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
