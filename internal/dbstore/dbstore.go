// Package dbstore is the application database backing exports and imports.
//
// Data lives in a single SQLite table keyed by appcode, collection and id.
// DB implements export.Dumper and importer.Restorer over that table.
package dbstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/thoreinstein/dbarchive/internal/errors"
	"github.com/thoreinstein/dbarchive/internal/paths"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
	appcode    TEXT NOT NULL,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	PRIMARY KEY (appcode, collection, id)
)`

// Record is one stored document.
type Record struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Body       json.RawMessage `json:"body"`
}

// Dump is the data entry format of an export archive.
type Dump struct {
	Appcode string   `json:"appcode"`
	Records []Record `json:"records"`
}

// DB is an open application database.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", path)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return &DB{db: db, logger: logger}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Put inserts or replaces rec for appcode.
func (d *DB) Put(ctx context.Context, appcode string, rec Record) error {
	if !json.Valid(rec.Body) {
		return errors.Newf("record %s/%s: body is not valid JSON", rec.Collection, rec.ID)
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO records (appcode, collection, id, body) VALUES (?, ?, ?, ?)`,
		appcode, rec.Collection, rec.ID, string(rec.Body))
	return errors.Wrapf(err, "storing record %s/%s", rec.Collection, rec.ID)
}

// Records returns every record of appcode ordered by collection and id.
func (d *DB) Records(ctx context.Context, appcode string) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT collection, id, body FROM records WHERE appcode = ? ORDER BY collection, id`, appcode)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			rec  Record
			body string
		)
		if err := rows.Scan(&rec.Collection, &rec.ID, &body); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		rec.Body = json.RawMessage(body)
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterating records")
}

// Dump writes every record of appcode to w as JSON.
func (d *DB) Dump(ctx context.Context, appcode string, w io.Writer) error {
	records, err := d.Records(ctx, appcode)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(Dump{Appcode: appcode, Records: records}); err != nil {
		return errors.Wrap(err, "encoding dump")
	}
	d.logger.Debug("dumped records", "appcode", appcode, "count", len(records))
	return nil
}

// Restore replaces the records of appcode with those in the dump at
// dataPath, in one transaction. The appcode recorded inside the dump is
// ignored. dataPath is removed whether or not the restore succeeds.
func (d *DB) Restore(ctx context.Context, appcode, dataPath string) (err error) {
	defer func() {
		if rerr := os.Remove(dataPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			d.logger.Warn("removing restored data file", "path", dataPath, "error", rerr)
		}
	}()

	f, err := os.Open(dataPath)
	if err != nil {
		return errors.Wrap(err, "opening data file")
	}
	var dump Dump
	err = json.NewDecoder(f).Decode(&dump)
	f.Close()
	if err != nil {
		return errors.Wrap(err, "decoding data file")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE appcode = ?`, appcode); err != nil {
		return errors.Wrap(err, "clearing records")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (appcode, collection, id, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for _, rec := range dump.Records {
		body := rec.Body
		if len(body) == 0 {
			body = json.RawMessage("null")
		}
		if _, err = stmt.ExecContext(ctx, appcode, rec.Collection, rec.ID, string(body)); err != nil {
			return errors.Wrapf(err, "inserting record %s/%s", rec.Collection, rec.ID)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing restore")
	}

	d.logger.Info("restored records", "appcode", appcode, "count", len(dump.Records))
	return nil
}
