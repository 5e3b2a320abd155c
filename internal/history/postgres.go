package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"stayrate/pkg/api"
)

// PostgresRepository reads enriched observations for a unit from the
// ingestion pipeline's table. The engine treats the rows as already
// enriched; weather and holiday fields are attached upstream.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects to Postgres with the given DSN.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error { return r.db.Close() }

// Ping verifies connectivity for readiness probes.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type observationRow struct {
	StayDate      time.Time       `db:"stay_date"`
	Price         sql.NullFloat64 `db:"price"`
	Occupancy     sql.NullFloat64 `db:"occupancy"`
	Temperature   sql.NullFloat64 `db:"temperature"`
	Precipitation sql.NullFloat64 `db:"precipitation"`
	Condition     sql.NullString  `db:"weather_condition"`
	IsHoliday     sql.NullBool    `db:"is_holiday"`
	HolidayName   sql.NullString  `db:"holiday_name"`
}

// ObservationsForUnit returns the unit's history in ascending date
// order, at most lookbackDays long (0 means unbounded).
func (r *PostgresRepository) ObservationsForUnit(ctx context.Context, unitID string, lookbackDays int) ([]api.HistoricalObservation, error) {
	query := `
		SELECT stay_date, price, occupancy, temperature, precipitation,
		       weather_condition, is_holiday, holiday_name
		FROM historical_observations
		WHERE unit_id = $1`
	args := []any{unitID}
	if lookbackDays > 0 {
		query += ` AND stay_date >= $2`
		args = append(args, time.Now().UTC().AddDate(0, 0, -lookbackDays))
	}
	query += ` ORDER BY stay_date ASC`

	var rows []observationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}

	out := make([]api.HistoricalObservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toObservation())
	}
	return out, nil
}

func (row observationRow) toObservation() api.HistoricalObservation {
	obs := api.HistoricalObservation{
		Date:        api.Date{Time: row.StayDate.UTC()},
		Condition:   row.Condition.String,
		HolidayName: row.HolidayName.String,
		IsHoliday:   row.IsHoliday.Bool,
	}
	if row.Price.Valid {
		v := row.Price.Float64
		obs.Price = &v
	}
	if row.Occupancy.Valid {
		v := row.Occupancy.Float64
		obs.Occupancy = &v
	}
	if row.Temperature.Valid {
		v := row.Temperature.Float64
		obs.Temperature = &v
	}
	if row.Precipitation.Valid {
		v := row.Precipitation.Float64
		obs.Precipitation = &v
	}
	return obs
}
