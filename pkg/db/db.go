package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/matt-steen/todo-notes/pkg/feed"
	"github.com/rs/zerolog/log"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// ErrUnknownDriver is returned by NewDatabase for drivers without a registered dialect.
var ErrUnknownDriver = errors.New("unknown database driver")

const (
	// DriverSQLite3 is the cgo SQLite driver and the default.
	DriverSQLite3 = "sqlite3"
	// DriverSQLite is the pure Go SQLite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres connects to a Postgres server.
	DriverPostgres = "postgres"
)

type dialect struct {
	schema string
	// fileBacked dialects store everything in the file named by the dsn.
	fileBacked bool
}

var dialects = map[string]dialect{
	DriverSQLite3:  {schema: sqliteSchema, fileBacked: true},
	DriverSQLite:   {schema: sqliteSchema, fileBacked: true},
	DriverPostgres: {schema: postgresSchema},
}

// Drivers returns the names accepted by WithDriver.
func Drivers() []string {
	return []string{DriverSQLite3, DriverSQLite, DriverPostgres}
}

const selectNotes = `SELECT id, header, description, done, date_time FROM note`

// Database stores notes and publishes the full list whenever it changes.
type Database struct {
	conn    *sql.DB
	driver  string
	dsn     string
	dialect dialect

	// reloadMu orders reloads so subscribers never see an older list after a newer one.
	reloadMu sync.Mutex
	notes    feed.Feed[[]Note]

	stopWatch context.CancelFunc
	watchers  sync.WaitGroup
}

type options struct {
	driver string
	watch  bool
}

// Option configures NewDatabase.
type Option func(*options)

// WithDriver selects the database/sql driver. Defaults to DriverSQLite3.
func WithDriver(driver string) Option {
	return func(o *options) {
		o.driver = driver
	}
}

// WithWatch enables picking up changes made by other processes: a file watch for
// SQLite, LISTEN/NOTIFY for Postgres.
func WithWatch(watch bool) Option {
	return func(o *options) {
		o.watch = watch
	}
}

// NewDatabase connects to the database at dsn and initializes the structure if not present.
func NewDatabase(ctx context.Context, dsn string, opts ...Option) (*Database, error) {
	o := options{driver: DriverSQLite3}
	for _, opt := range opts {
		opt(&o)
	}

	d, ok := dialects[o.driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, o.driver)
	}

	conn, err := sql.Open(o.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s db at %s: %w", o.driver, dsn, err)
	}

	if d.fileBacked {
		// sqlite allows a single writer; sharing one connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}

	database := &Database{
		conn:    conn,
		driver:  o.driver,
		dsn:     dsn,
		dialect: d,
	}

	if err := database.initialize(ctx); err != nil {
		conn.Close()

		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	database.stopWatch = cancel

	if o.watch {
		if err := database.watch(watchCtx); err != nil {
			database.Close()

			return nil, err
		}
	}

	log.Debug().Str("driver", o.driver).Str("dsn", dsn).Bool("watch", o.watch).Msg("database ready")

	return database, nil
}

func (d *Database) initialize(ctx context.Context) error {
	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := d.conn.ExecContext(ctx, d.dialect.schema); err != nil {
		return fmt.Errorf("error running base sql: %w", err)
	}

	return nil
}

func (d *Database) watch(ctx context.Context) error {
	if d.dialect.fileBacked {
		return d.watchFile(ctx)
	}

	return d.listen(ctx)
}

// Close stops watching for changes, closes every Observe channel and the connection.
func (d *Database) Close() error {
	d.stopWatch()
	d.watchers.Wait()
	d.notes.Close()

	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("error closing db: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (Note, error) {
	var note Note

	err := row.Scan(&note.ID, &note.Header, &note.Description, &note.Done, &note.DateTime)

	return note, err
}

// FetchAll returns every note in natural (insertion) order.
func (d *Database) FetchAll(ctx context.Context) ([]Note, error) {
	rows, err := d.conn.QueryContext(ctx, selectNotes+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error loading notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}

	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notes: %w", err)
		}

		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning notes: %w", err)
	}

	return notes, nil
}

// FetchByID returns the note with the given id. ok is false if there is no such note.
func (d *Database) FetchByID(ctx context.Context, id int64) (note Note, ok bool, err error) {
	note, err = scanNote(d.conn.QueryRowContext(ctx, selectNotes+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, false, nil
	}

	if err != nil {
		return Note{}, false, fmt.Errorf("error loading note %d: %w", id, err)
	}

	return note, true, nil
}

// Upsert inserts a note that has no id yet, or fully replaces the note with a matching id.
// The saved note is returned with its id set.
func (d *Database) Upsert(ctx context.Context, note Note) (Note, error) {
	if !note.Persisted() {
		err := d.conn.QueryRowContext(ctx,
			`INSERT INTO note (header, description, done, date_time)
			     VALUES ($1, $2, $3, $4)
			  RETURNING id`,
			note.Header, note.Description, note.Done, note.DateTime,
		).Scan(&note.ID)
		if err != nil {
			return Note{}, fmt.Errorf("error adding note '%s': %w", note.Header, err)
		}
	} else {
		_, err := d.conn.ExecContext(ctx,
			`INSERT INTO note (id, header, description, done, date_time)
			     VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			        SET header = excluded.header,
			            description = excluded.description,
			            done = excluded.done,
			            date_time = excluded.date_time`,
			note.ID, note.Header, note.Description, note.Done, note.DateTime,
		)
		if err != nil {
			return Note{}, fmt.Errorf("error saving note %d '%s': %w", note.ID, note.Header, err)
		}
	}

	log.Debug().Int64("id", note.ID).Str("header", note.Header).Msg("saved note")

	d.reload(ctx)

	return note, nil
}

// Delete removes the note with the same id. Deleting a note that doesn't exist is not an error.
func (d *Database) Delete(ctx context.Context, note Note) error {
	if _, err := d.conn.ExecContext(ctx, `DELETE FROM note WHERE id = $1`, note.ID); err != nil {
		return fmt.Errorf("error deleting note %d '%s': %w", note.ID, note.Header, err)
	}

	log.Debug().Int64("id", note.ID).Msg("deleted note")

	d.reload(ctx)

	return nil
}

// Observe returns a channel that receives the full note list now and after every change.
// Only the latest list is kept for a slow reader. The channel closes when ctx is done or
// the database is closed.
func (d *Database) Observe(ctx context.Context) (<-chan []Note, error) {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	notes, err := d.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	return d.notes.Subscribe(ctx, notes), nil
}

// reload publishes the current list to observers. Failures are logged: the change that
// triggered the reload already happened and observers keep the previous list.
func (d *Database) reload(ctx context.Context) {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	if d.notes.Len() == 0 {
		return
	}

	notes, err := d.FetchAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("error reloading notes for observers")

		return
	}

	d.notes.Publish(notes)
}
