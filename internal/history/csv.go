// Package history implements the historical data provider contract:
// ordered, enriched daily observations for one inventory unit, loaded
// from CSV files or a Postgres repository. The pricing engine itself
// never touches I/O; these providers feed it.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"stayrate/pkg/api"
)

// LoadCSV reads enriched observations from a headered CSV file and
// returns them in ascending date order. Rows with an unparseable date
// are skipped with a warning; optional columns left empty stay nil.
//
// Recognized headers: date, price, occupancy, temperature,
// precipitation, weather_condition, is_holiday, holiday_name.
func LoadCSV(path string) ([]api.HistoricalObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses observations from any CSV stream.
func ReadCSV(r io.Reader) ([]api.HistoricalObservation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["date"]; !ok {
		return nil, fmt.Errorf("history csv is missing a date column")
	}

	var rows []api.HistoricalObservation
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed csv row")
			continue
		}

		obs, err := parseRow(record, cols)
		if err != nil {
			log.Warn().Int("line", line).Err(err).Msg("skipping unusable history row")
			continue
		}
		rows = append(rows, obs)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date.Time) })
	return rows, nil
}

func parseRow(record []string, cols map[string]int) (api.HistoricalObservation, error) {
	var obs api.HistoricalObservation

	raw := field(record, cols, "date")
	date, err := api.ParseDate(raw)
	if err != nil {
		return obs, fmt.Errorf("invalid date %q", raw)
	}
	obs.Date = date

	obs.Price = floatField(record, cols, "price")
	if obs.Price != nil && *obs.Price < 0 {
		return obs, fmt.Errorf("negative price")
	}
	obs.Occupancy = floatField(record, cols, "occupancy")
	if obs.Occupancy != nil && *obs.Occupancy < 0 {
		return obs, fmt.Errorf("negative occupancy")
	}
	obs.Temperature = floatField(record, cols, "temperature")
	obs.Precipitation = floatField(record, cols, "precipitation")
	obs.Condition = field(record, cols, "weather_condition")
	obs.HolidayName = field(record, cols, "holiday_name")

	switch strings.ToLower(field(record, cols, "is_holiday")) {
	case "true", "1", "yes":
		obs.IsHoliday = true
	}
	if obs.HolidayName != "" {
		obs.IsHoliday = true
	}

	return obs, nil
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func floatField(record []string, cols map[string]int, name string) *float64 {
	s := field(record, cols, name)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
