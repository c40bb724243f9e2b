package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nais/publish/pkg/publishd/metrics"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = fmt.Errorf("database row not found")
	ErrStateConflict = fmt.Errorf("deployment is not in the expected state")
)

type Database struct {
	conn *pgxpool.Pool
}

func IsErrNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsErrStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}

func New(ctx context.Context, dsn string) (*Database, error) {
	conn, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &Database{
		conn: conn,
	}, nil
}

func (db *Database) Close() {
	db.conn.Close()
}

func (db *Database) timedQuery(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	now := time.Now()
	rows, err := db.conn.Query(ctx, sql, args...)
	metrics.DatabaseQuery(now, err)
	return rows, err
}

func (db *Database) Migrate(ctx context.Context) error {
	var version int

	query := `SELECT MAX(version) FROM migrations`
	row := db.conn.QueryRow(ctx, query)
	err := row.Scan(&version)

	if err != nil {
		// no schema yet; the first migration creates the version table.
		log.Warnf("unable to get current migration version: %s", err)
	}

	for version < len(migrations) {
		log.Infof("migrating database schema to version %d", version+1)

		_, err = db.conn.Exec(ctx, migrations[version])
		if err != nil {
			return fmt.Errorf("migrating to version %d: %s", version+1, err)
		}

		version++
	}

	return nil
}
