// Package datarecording stores rows of flat structs in a SQLite database.
package datarecording

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"
	"github.com/pkg/errors"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data. It is safe to
// use from several goroutines.
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists. It panics
	// once the recorder is closed.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

const defaultBatchSize = 100000

// New creates a DataRecorder that writes to a new SQLite file. The
// ".sqlite3" extension is appended when missing. An empty path picks a
// unique name.
func New(path string) DataRecorder {
	w := newWriter()
	w.dbName = path
	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

// NewWithDB creates a DataRecorder on an open database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := newWriter()
	w.DB = db

	atexit.Register(func() { w.Flush() })

	return w
}

func newWriter() *sqliteWriter {
	return &sqliteWriter{
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	*sql.DB

	lock       sync.Mutex
	dbName     string
	tables     map[string]*table
	batchSize  int
	entryCount int
	closed     bool
}

func (t *sqliteWriter) init() {
	if t.dbName == "" {
		t.dbName = "aiesim_recording_" + xid.New().String()
	}

	filename := t.dbName
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	slog.Info("database created for recording", "file", filename)

	t.DB = db
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types == nil || types.Kind() != reflect.Struct {
		return errors.Errorf("entry of type %T is not a struct", entry)
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)
		if !isAllowedKind(field.Type.Kind()) {
			return errors.Errorf("field %s of %T has unsupported type %s",
				field.Name, entry, field.Type)
		}
	}

	return nil
}

func (t *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, exists := t.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	t.mustExecute(`CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`)

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

func (t *sqliteWriter) InsertData(tableName string, entry any) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		panic(fmt.Sprintf("inserting into table %s after close", tableName))
	}

	table, exists := t.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Sprintf("table %s stores %s, got %T",
			tableName, table.structType, entry))
	}

	table.entries = append(table.entries, entry)

	t.entryCount++
	if t.entryCount >= t.batchSize {
		t.flush()
	}
}

func (t *sqliteWriter) ListTables() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	tables := make([]string, 0, len(t.tables))
	for table := range t.tables {
		tables = append(tables, table)
	}

	return tables
}

func (t *sqliteWriter) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.flush()
}

func (t *sqliteWriter) flush() {
	if t.entryCount == 0 || t.closed {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(errors.Wrap(err, "failed to begin transaction"))
	}

	for tableName, table := range t.tables {
		if len(table.entries) == 0 {
			continue
		}

		stmt := t.prepareStatement(tx, tableName, table.entries[0])

		for _, entry := range table.entries {
			v := []any{}

			values := reflect.ValueOf(entry)
			for i := 0; i < values.NumField(); i++ {
				v = append(v, values.Field(i).Interface())
			}

			_, err := stmt.Exec(v...)
			if err != nil {
				panic(err)
			}
		}

		table.entries = nil

		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		panic(errors.Wrap(err, "failed to commit transaction"))
	}

	t.entryCount = 0
}

func (t *sqliteWriter) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return nil
	}

	t.flush()
	t.closed = true

	return t.DB.Close()
}

func (t *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(errors.Wrapf(err, "failed to execute %q", query))
	}

	return res
}

func (t *sqliteWriter) prepareStatement(
	tx *sql.Tx,
	table string,
	entry any,
) *sql.Stmt {
	n := structs.Names(entry)
	for i := 0; i < len(n); i++ {
		n[i] = "?"
	}

	sqlStr := "INSERT INTO " + table + " VALUES (" + strings.Join(n, ", ") + ")"

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}
