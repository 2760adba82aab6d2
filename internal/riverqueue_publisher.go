package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// riverQueuePublisher hands rendered lines to a RiverQueue job queue, one job
// per line, for workers that deliver to slow or flaky chat endpoints.
type riverQueuePublisher struct {
	db  *sql.DB
	cfg RiverQueueConfig
}

// newRiverQueuePublisher creates a new RiverQueue publisher.
func newRiverQueuePublisher(cfg RiverQueueConfig) (*riverQueuePublisher, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("riverqueue dsn is required")
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &riverQueuePublisher{db: db, cfg: cfg}, nil
}

// Publish inserts a new line-delivery job into the RiverQueue jobs table.
func (p *riverQueuePublisher) Publish(ctx context.Context, topic string, msg Message) error {
	argsPayload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	metadata := map[string]interface{}{
		"provider": msg.Provider,
		"repo":     msg.Repo,
		"topic":    topic,
	}
	metadataPayload, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	table := strings.TrimSpace(p.cfg.Table)
	if table == "" {
		table = "river_job"
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (args, kind, max_attempts, metadata, priority, queue, scheduled_at, tags)
VALUES ($1, $2, $3, $4, $5, $6, now(), $7)`,
		table,
	)

	_, err = p.db.ExecContext(
		ctx,
		query,
		string(argsPayload),
		p.cfg.Kind,
		p.cfg.MaxAttempts,
		string(metadataPayload),
		p.cfg.Priority,
		p.cfg.Queue,
		pq.Array(p.cfg.Tags),
	)
	if err == nil {
		IncPublishedLines(topic, 1)
	}
	return err
}

// Close closes the underlying database connection.
func (p *riverQueuePublisher) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// PublishForDrivers is a convenience method that calls Publish.
func (p *riverQueuePublisher) PublishForDrivers(ctx context.Context, topic string, msg Message, drivers []string) error {
	return p.Publish(ctx, topic, msg)
}
