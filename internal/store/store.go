// Package store persists user state in SQLite: display preferences, the
// read-alert list, the confirmed alarm, and a compressed copy of the last
// schedule payload so the app can show departures before the first fetch
// completes.
package store

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"tideline.pugetsound.org/internal/logging"
	"tideline.pugetsound.org/internal/models"
)

//go:embed schema.sql
var ddl string

const (
	keyTimeFormat    = "time_format"
	keyBufferMinutes = "buffer_minutes"
	keyUseLocation   = "use_location"
	keyDisplaySet    = "display_set"
)

// Store is the settings database. It satisfies alerts.ReadStore and
// alarm.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and migrates) the settings database at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening settings database: %w", err)
	}

	// Each connection to a :memory: database is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA temp_store=MEMORY"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configuring settings database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating settings database: %w", err)
	}

	return &Store{
		db:     db,
		logger: logging.ForComponent("store"),
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", stmt, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for connection-pool metrics.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) setting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

// TimeFormat returns the saved display format, or fallback when unset.
func (s *Store) TimeFormat(fallback string) (string, error) {
	value, ok, err := s.setting(keyTimeFormat)
	if err != nil || !ok {
		return fallback, err
	}
	return value, nil
}

func (s *Store) SetTimeFormat(format string) error {
	return s.setSetting(keyTimeFormat, format)
}

// BufferMinutes returns the saved dock buffer, or fallback when unset.
func (s *Store) BufferMinutes(fallback int) (int, error) {
	value, ok, err := s.setting(keyBufferMinutes)
	if err != nil || !ok {
		return fallback, err
	}
	minutes, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("corrupt buffer setting %q: %w", value, err)
	}
	return minutes, nil
}

func (s *Store) SetBufferMinutes(minutes int) error {
	return s.setSetting(keyBufferMinutes, strconv.Itoa(minutes))
}

// UseLocation reports whether travel-time estimation is enabled. Defaults
// to true when unset.
func (s *Store) UseLocation() (bool, error) {
	value, ok, err := s.setting(keyUseLocation)
	if err != nil || !ok {
		return true, err
	}
	return value == "true", nil
}

func (s *Store) SetUseLocation(on bool) error {
	return s.setSetting(keyUseLocation, strconv.FormatBool(on))
}

// DisplaySet returns the saved displayed-route codes. The second return is
// false when the user has never customized the set.
func (s *Store) DisplaySet() ([]int64, bool, error) {
	value, ok, err := s.setting(keyDisplaySet)
	if err != nil || !ok {
		return nil, false, err
	}
	var codes []int64
	for _, field := range strings.Split(value, ",") {
		if field == "" {
			continue
		}
		code, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt display set %q: %w", value, err)
		}
		codes = append(codes, code)
	}
	return codes, true, nil
}

func (s *Store) SetDisplaySet(codes []int64) error {
	fields := make([]string, len(codes))
	for i, code := range codes {
		fields[i] = strconv.FormatInt(code, 10)
	}
	return s.setSetting(keyDisplaySet, strings.Join(fields, ","))
}

// ReadAlertIDs returns the ids of alerts the user has read.
func (s *Store) ReadAlertIDs() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM read_alerts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("reading alert ids: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, s.logger, "read_alerts rows")

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetReadAlertIDs replaces the read-alert list wholesale.
func (s *Store) SetReadAlertIDs(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replacing read alerts: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM read_alerts"); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.Exec("INSERT OR IGNORE INTO read_alerts (id) VALUES (?)", id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Alarm returns the persisted alarm, or nil when none is set.
func (s *Store) Alarm() (*models.Alarm, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM alarm WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading alarm: %w", err)
	}
	var alarm models.Alarm
	if err := json.Unmarshal([]byte(payload), &alarm); err != nil {
		return nil, fmt.Errorf("corrupt alarm payload: %w", err)
	}
	return &alarm, nil
}

// SaveAlarm persists the single alarm, replacing any previous one.
func (s *Store) SaveAlarm(alarm *models.Alarm) error {
	payload, err := json.Marshal(alarm)
	if err != nil {
		return fmt.Errorf("encoding alarm: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO alarm (id, payload) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET payload = excluded.payload",
		string(payload))
	if err != nil {
		return fmt.Errorf("writing alarm: %w", err)
	}
	return nil
}

// DeleteAlarm removes the persisted alarm if present.
func (s *Store) DeleteAlarm() error {
	if _, err := s.db.Exec("DELETE FROM alarm WHERE id = 1"); err != nil {
		return fmt.Errorf("deleting alarm: %w", err)
	}
	return nil
}

// SaveScheduleCache stores a schedule payload gzipped alongside its cache
// date, replacing any previous copy.
func (s *Store) SaveScheduleCache(cacheDate, payload string) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(payload)); err != nil {
		return fmt.Errorf("compressing schedule cache: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compressing schedule cache: %w", err)
	}

	_, err := s.db.Exec(
		"INSERT INTO schedule_cache (id, cache_date, payload) VALUES (1, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET cache_date = excluded.cache_date, payload = excluded.payload",
		cacheDate, buf.Bytes())
	if err != nil {
		return fmt.Errorf("writing schedule cache: %w", err)
	}
	return nil
}

// ScheduleCache returns the cached schedule payload and its cache date.
// The third return is false when no cache exists.
func (s *Store) ScheduleCache() (cacheDate, payload string, ok bool, err error) {
	var compressed []byte
	err = s.db.QueryRow("SELECT cache_date, payload FROM schedule_cache WHERE id = 1").
		Scan(&cacheDate, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("reading schedule cache: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", "", false, fmt.Errorf("corrupt schedule cache: %w", err)
	}
	defer logging.SafeCloseWithLogging(gz, s.logger, "schedule cache reader")

	raw, err := io.ReadAll(gz)
	if err != nil {
		return "", "", false, fmt.Errorf("decompressing schedule cache: %w", err)
	}
	return cacheDate, string(raw), true, nil
}

// ClearScheduleCache drops the cached schedule payload.
func (s *Store) ClearScheduleCache() error {
	if _, err := s.db.Exec("DELETE FROM schedule_cache WHERE id = 1"); err != nil {
		return fmt.Errorf("clearing schedule cache: %w", err)
	}
	return nil
}
