// Package sqlite keeps closed present weather episodes in a SQLite file so
// that a restarted meter can rebuild its window.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/wmo"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS precipitation (
	start           INTEGER PRIMARY KEY,
	stop            INTEGER NOT NULL,
	ww              INTEGER,
	wawa            INTEGER,
	metar           TEXT NOT NULL DEFAULT '',
	precip_start    INTEGER,
	intensity_sum   REAL NOT NULL DEFAULT 0,
	duration_sum    REAL NOT NULL DEFAULT 0,
	rain_rate_sum   REAL NOT NULL DEFAULT 0,
	rain_rate_count INTEGER NOT NULL DEFAULT 0,
	last_rain_abs   REAL,
	samples         INTEGER NOT NULL DEFAULT 0,
	spell_start     INTEGER,
	spell_end       INTEGER,
	interruption    INTEGER NOT NULL DEFAULT 0
)`

const createStopIndexSQL = `CREATE INDEX IF NOT EXISTS precipitation_stop ON precipitation (stop)`

const upsertSQL = `
INSERT OR REPLACE INTO precipitation
	(start, stop, ww, wawa, metar, precip_start, intensity_sum, duration_sum,
	 rain_rate_sum, rain_rate_count, last_rain_abs, samples, spell_start, spell_end, interruption)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectSinceSQL = `
SELECT start, stop, ww, wawa, metar, precip_start, intensity_sum, duration_sum,
       rain_rate_sum, rain_rate_count, last_rain_abs, samples, spell_start, spell_end, interruption
FROM precipitation
WHERE stop >= ?
ORDER BY start`

// Store is a presentweather.EpisodeStore backed by one SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

var _ presentweather.EpisodeStore = (*Store)(nil)

// Open opens or creates the episode database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	for _, stmt := range []string{createTableSQL, createStopIndexSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create episode table in %s: %w", path, err)
		}
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file name.
func (s *Store) Path() string {
	return s.path
}

// AppendEpisode writes e, replacing any episode with the same start.
func (s *Store) AppendEpisode(ctx context.Context, e presentweather.Episode) error {
	_, err := s.db.ExecContext(ctx, upsertSQL,
		e.Start, e.End, nullCode(e.WW), nullCode(e.Wawa), e.METAR,
		nullInt(e.PrecipitationStart), e.IntensitySum, e.DurationSum,
		e.RainRateSum, e.RainRateCount, nullFloat(e.LastRainAbsolute), e.Samples,
		nullInt(e.SpellStart), nullInt(e.SpellEnd), e.Interruption,
	)
	if err != nil {
		return fmt.Errorf("failed to store episode %d: %w", e.Start, err)
	}
	return nil
}

// DeleteEpisode removes the episode starting at start. Deleting a missing
// episode is not an error.
func (s *Store) DeleteEpisode(ctx context.Context, start int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM precipitation WHERE start = ?`, start); err != nil {
		return fmt.Errorf("failed to delete episode %d: %w", start, err)
	}
	return nil
}

// LoadRecentEpisodes returns the episodes that ended at or after since,
// oldest first.
func (s *Store) LoadRecentEpisodes(ctx context.Context, since int64) ([]presentweather.Episode, error) {
	rows, err := s.db.QueryContext(ctx, selectSinceSQL, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []presentweather.Episode
	for rows.Next() {
		var (
			e                    presentweather.Episode
			ww, wawa             sql.NullInt64
			precipStart          sql.NullInt64
			spellStart, spellEnd sql.NullInt64
			lastRainAbs          sql.NullFloat64
		)
		err := rows.Scan(&e.Start, &e.End, &ww, &wawa, &e.METAR, &precipStart,
			&e.IntensitySum, &e.DurationSum, &e.RainRateSum, &e.RainRateCount,
			&lastRainAbs, &e.Samples, &spellStart, &spellEnd, &e.Interruption)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		e.WW = codeFrom(ww)
		e.Wawa = codeFrom(wawa)
		e.PrecipitationStart = intFrom(precipStart)
		e.SpellStart = intFrom(spellStart)
		e.SpellEnd = intFrom(spellEnd)
		if lastRainAbs.Valid {
			v := lastRainAbs.Float64
			e.LastRainAbsolute = &v
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read episodes: %w", err)
	}
	return episodes, nil
}

// PruneEpisodes removes episodes that ended before before.
func (s *Store) PruneEpisodes(ctx context.Context, before int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM precipitation WHERE stop < ?`, before); err != nil {
		return fmt.Errorf("failed to prune episodes: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullCode(c wmo.Code) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(c), Valid: c.Valid()}
}

func codeFrom(v sql.NullInt64) wmo.Code {
	if !v.Valid {
		return wmo.None
	}
	return wmo.CodeOf(int(v.Int64))
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intFrom(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
