package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/swoga/moto-exporter/config"
	"github.com/swoga/moto-exporter/model"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Postgres stores points as rows of (measurement, ts, tags, fields).
type Postgres struct {
	db    *sql.DB
	exec  execer
	table string
}

func OpenPostgres(ctx context.Context, cfg config.Postgres) (*Postgres, error) {
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("postgres sink: invalid table name %q", cfg.Table)
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres sink: ping: %w", err)
	}
	return &Postgres{db: db, exec: db, table: cfg.Table}, nil
}

func (s *Postgres) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	measurement TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	tags JSONB NOT NULL,
	fields JSONB NOT NULL
)`, s.table)
	if _, err := s.exec.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres sink: create table: %w", err)
	}
	return nil
}

func (s *Postgres) Ingest(ctx context.Context, point model.Point) error {
	if s == nil || s.exec == nil {
		return &SinkError{Sink: "postgres", Measurement: point.Measurement, Err: errors.New("nil db")}
	}
	args, err := pointRow(point)
	if err != nil {
		return &SinkError{Sink: "postgres", Measurement: point.Measurement, Err: err}
	}
	query := fmt.Sprintf(`INSERT INTO %s (measurement, ts, tags, fields) VALUES ($1, $2, $3, $4)`, s.table)
	if _, err := s.exec.ExecContext(ctx, query, args...); err != nil {
		return &SinkError{Sink: "postgres", Measurement: point.Measurement, Err: err}
	}
	return nil
}

func (s *Postgres) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func pointRow(point model.Point) ([]interface{}, error) {
	tags := point.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	fieldsJSON, err := json.Marshal(point.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return []interface{}{point.Measurement, point.Time.UTC().Truncate(time.Microsecond), string(tagsJSON), string(fieldsJSON)}, nil
}
