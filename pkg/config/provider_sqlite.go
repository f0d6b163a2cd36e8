package config

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS station (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	user TEXT, password TEXT, api_token TEXT, station_id TEXT,
	units TEXT, api_endpoint TEXT
);
CREATE TABLE IF NOT EXISTS polling (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	short_poll TEXT, long_poll TEXT
);
CREATE TABLE IF NOT EXISTS host (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	broker TEXT, port INTEGER, client_id TEXT,
	username TEXT, password TEXT, profile INTEGER
);
CREATE TABLE IF NOT EXISTS storage_configs (
	backend_type TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 1,
	timescale_connection_string TEXT,
	timescale_station TEXT
);
CREATE TABLE IF NOT EXISTS rest_server (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	enabled INTEGER NOT NULL DEFAULT 1,
	listen_addr TEXT, port INTEGER
);
CREATE TABLE IF NOT EXISTS logging (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	debug INTEGER, file TEXT,
	max_size_mb INTEGER, max_backups INTEGER, max_age_days INTEGER
);
CREATE TABLE IF NOT EXISTS custom_params (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider, creating the
// schema if the database is new
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	station, err := s.GetStationConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load station config: %w", err)
	}
	config.Station = *station

	if config.Polling, err = s.getPolling(); err != nil {
		return nil, fmt.Errorf("failed to load polling config: %w", err)
	}

	host, err := s.GetHostConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load host config: %w", err)
	}
	config.Host = *host

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	if config.REST, err = s.getREST(); err != nil {
		return nil, fmt.Errorf("failed to load rest config: %w", err)
	}

	if config.Log, err = s.getLog(); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	if err := ApplyDefaults(config); err != nil {
		return nil, err
	}
	return config, nil
}

// GetStationConfig returns the station configuration from the database
func (s *SQLiteProvider) GetStationConfig() (*StationData, error) {
	var user, password, token, stationID, units, endpoint sql.NullString
	err := s.db.QueryRow(`SELECT user, password, api_token, station_id, units, api_endpoint FROM station WHERE id = 1`).
		Scan(&user, &password, &token, &stationID, &units, &endpoint)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query station: %w", err)
	}

	// NULL columns become empty strings
	return &StationData{
		User:        user.String,
		Password:    password.String,
		APIToken:    token.String,
		StationID:   stationID.String,
		Units:       units.String,
		APIEndpoint: endpoint.String,
	}, nil
}

func (s *SQLiteProvider) getPolling() (PollingData, error) {
	var short, long sql.NullString
	err := s.db.QueryRow(`SELECT short_poll, long_poll FROM polling WHERE id = 1`).Scan(&short, &long)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return PollingData{}, err
	}
	return PollingData{ShortPoll: short.String, LongPoll: long.String}, nil
}

// GetHostConfig returns the host connection configuration from the database
func (s *SQLiteProvider) GetHostConfig() (*HostData, error) {
	var broker, clientID, username, password sql.NullString
	var port, profile sql.NullInt64
	err := s.db.QueryRow(`SELECT broker, port, client_id, username, password, profile FROM host WHERE id = 1`).
		Scan(&broker, &port, &clientID, &username, &password, &profile)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query host: %w", err)
	}

	return &HostData{
		Broker:   broker.String,
		Port:     int(port.Int64),
		ClientID: clientID.String,
		Username: username.String,
		Password: password.String,
		Profile:  int(profile.Int64),
	}, nil
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	rows, err := s.db.Query(`SELECT backend_type, timescale_connection_string, timescale_station FROM storage_configs WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType string
		var connectionString, station sql.NullString
		if err := rows.Scan(&backendType, &connectionString, &station); err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "timescaledb":
			if connectionString.Valid {
				storage.TimescaleDB = &TimescaleDBData{
					ConnectionString: connectionString.String,
					Station:          station.String,
				}
			}
		}
	}
	return storage, rows.Err()
}

func (s *SQLiteProvider) getREST() (*RESTServerData, error) {
	var listenAddr sql.NullString
	var port sql.NullInt64
	err := s.db.QueryRow(`SELECT listen_addr, port FROM rest_server WHERE id = 1 AND enabled = 1`).Scan(&listenAddr, &port)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &RESTServerData{ListenAddr: listenAddr.String, Port: int(port.Int64)}, nil
}

func (s *SQLiteProvider) getLog() (LogData, error) {
	var debug sql.NullBool
	var file sql.NullString
	var size, backups, age sql.NullInt64
	err := s.db.QueryRow(`SELECT debug, file, max_size_mb, max_backups, max_age_days FROM logging WHERE id = 1`).
		Scan(&debug, &file, &size, &backups, &age)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return LogData{}, err
	}
	return LogData{
		Debug:      debug.Bool,
		File:       file.String,
		MaxSizeMB:  int(size.Int64),
		MaxBackups: int(backups.Int64),
		MaxAgeDays: int(age.Int64),
	}, nil
}

// GetParams returns the custom parameters last saved from the host
func (s *SQLiteProvider) GetParams() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT name, value FROM custom_params`)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom params: %w", err)
	}
	defer rows.Close()

	params := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan custom param: %w", err)
		}
		params[name] = value
	}
	return params, rows.Err()
}

// SaveParams replaces the stored custom parameters
func (s *SQLiteProvider) SaveParams(params map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM custom_params`); err != nil {
		return err
	}
	for name, value := range params {
		if _, err := tx.Exec(`INSERT INTO custom_params (name, value) VALUES (?, ?)`, name, value); err != nil {
			return fmt.Errorf("failed to save param %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// SaveConfig saves complete configuration to the database
func (s *SQLiteProvider) SaveConfig(c *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	st := c.Station
	if _, err := tx.Exec(`INSERT OR REPLACE INTO station (id, user, password, api_token, station_id, units, api_endpoint) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		nullString(st.User), nullString(st.Password), nullString(st.APIToken), nullString(st.StationID),
		nullString(st.Units), nullString(st.APIEndpoint)); err != nil {
		return fmt.Errorf("failed to save station: %w", err)
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO polling (id, short_poll, long_poll) VALUES (1, ?, ?)`,
		nullString(c.Polling.ShortPoll), nullString(c.Polling.LongPoll)); err != nil {
		return fmt.Errorf("failed to save polling: %w", err)
	}

	h := c.Host
	if _, err := tx.Exec(`INSERT OR REPLACE INTO host (id, broker, port, client_id, username, password, profile) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		nullString(h.Broker), nullInt(h.Port), nullString(h.ClientID), nullString(h.Username),
		nullString(h.Password), nullInt(h.Profile)); err != nil {
		return fmt.Errorf("failed to save host: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM storage_configs`); err != nil {
		return err
	}
	if ts := c.Storage.TimescaleDB; ts != nil {
		if _, err := tx.Exec(`INSERT INTO storage_configs (backend_type, enabled, timescale_connection_string, timescale_station) VALUES ('timescaledb', 1, ?, ?)`,
			ts.ConnectionString, nullString(ts.Station)); err != nil {
			return fmt.Errorf("failed to save timescaledb config: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM rest_server`); err != nil {
		return err
	}
	if r := c.REST; r != nil {
		if _, err := tx.Exec(`INSERT INTO rest_server (id, enabled, listen_addr, port) VALUES (1, 1, ?, ?)`,
			nullString(r.ListenAddr), nullInt(r.Port)); err != nil {
			return fmt.Errorf("failed to save rest config: %w", err)
		}
	}

	l := c.Log
	if _, err := tx.Exec(`INSERT OR REPLACE INTO logging (id, debug, file, max_size_mb, max_backups, max_age_days) VALUES (1, ?, ?, ?, ?, ?)`,
		l.Debug, nullString(l.File), nullInt(l.MaxSizeMB), nullInt(l.MaxBackups), nullInt(l.MaxAgeDays)); err != nil {
		return fmt.Errorf("failed to save log config: %w", err)
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Helper functions for handling nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}
