package stations

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a station database shared by all card families.
type SQLite struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the station database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open station database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping station database: %w", err)
	}
	db := &SQLite{conn: conn}
	if err := db.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the stations table if it does not exist.
func (db *SQLite) EnsureSchema(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Import upserts entries into namespace and returns the number written.
func (db *SQLite) Import(ctx context.Context, namespace string, entries []Entry) (int, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stations
		(namespace, agency, code, name, short_name, company, lines, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, agency, code) DO UPDATE SET
			name = excluded.name,
			short_name = excluded.short_name,
			company = excluded.company,
			lines = excluded.lines,
			latitude = excluded.latitude,
			longitude = excluded.longitude`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, namespace, e.Agency, e.Code, e.Name, e.ShortName,
			e.Company, strings.Join(e.Lines, ","), e.Latitude, e.Longitude); err != nil {
			return 0, fmt.Errorf("failed to import station %d/%d: %w", e.Agency, e.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(entries), nil
}

// Count returns the number of stations in namespace.
func (db *SQLite) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations WHERE namespace = ?`, namespace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stations: %w", err)
	}
	return n, nil
}

// For returns a resolver reading one namespace.
func (db *SQLite) For(namespace string) Resolver {
	return &sqliteNamespace{db: db, namespace: namespace}
}

type sqliteNamespace struct {
	db        *SQLite
	namespace string
}

func (n *sqliteNamespace) ResolveStation(ctx context.Context, agency, code int) (transit.Station, error) {
	var (
		e        Entry
		lines    string
		lat, lon sql.NullFloat64
	)
	err := n.db.conn.QueryRowContext(ctx, `SELECT agency, code, name, short_name, company, lines, latitude, longitude
		FROM stations WHERE namespace = ? AND agency = ? AND code = ?`, n.namespace, agency, code).
		Scan(&e.Agency, &e.Code, &e.Name, &e.ShortName, &e.Company, &lines, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return transit.Station{}, fmt.Errorf("%s agency %#x code %#x: %w", n.namespace, agency, code, ErrNotFound)
	}
	if err != nil {
		return transit.Station{}, fmt.Errorf("failed to query station: %w", err)
	}
	if lines != "" {
		e.Lines = strings.Split(lines, ",")
	}
	if lat.Valid && lon.Valid {
		e.Latitude, e.Longitude = &lat.Float64, &lon.Float64
	}
	return e.Station(), nil
}
