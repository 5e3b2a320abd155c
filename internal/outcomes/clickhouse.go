// Package outcomes provides the ClickHouse-backed store for realized
// quote outcomes submitted through the Learn channel. Append-only and
// columnar: the table exists to feed future elasticity and seasonality
// re-estimation, not transactional reads.
package outcomes

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"stayrate/pkg/api"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "stayrate",
		Username: "default",
	}
}

// Store writes outcome records to ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore connects to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the outcome table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS quote_outcomes (
			id               UUID,
			unit_id          String,
			stay_date        Date,
			quoted_price     Float64,
			actual_occupancy Float64,
			recorded_at      DateTime
		)
		ENGINE = MergeTree()
		ORDER BY (unit_id, stay_date)
	`
	return s.conn.Exec(ctx, query)
}

// InsertOutcomes writes a batch of validated outcome records and
// returns how many were persisted.
func (s *Store) InsertOutcomes(ctx context.Context, records []api.OutcomeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO quote_outcomes (id, unit_id, stay_date, quoted_price, actual_occupancy, recorded_at)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare outcome batch: %w", err)
	}

	now := time.Now().UTC()
	inserted := 0
	for _, rec := range records {
		stayDate, err := api.ParseDate(rec.StayDate)
		if err != nil {
			continue
		}
		if err := batch.Append(
			uuid.New(),
			rec.UnitID,
			stayDate.Time,
			rec.QuotedPrice,
			rec.ActualOccupancy,
			now,
		); err != nil {
			return inserted, fmt.Errorf("append outcome: %w", err)
		}
		inserted++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send outcome batch: %w", err)
	}
	return inserted, nil
}

// CountForUnit reports how many outcomes are stored for a unit, for
// operators checking whether re-estimation has enough feedback yet.
func (s *Store) CountForUnit(ctx context.Context, unitID string) (uint64, error) {
	query := `SELECT count() FROM quote_outcomes WHERE unit_id = ?`
	row := s.conn.QueryRow(ctx, query, unitID)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count outcomes: %w", err)
	}
	return count, nil
}
