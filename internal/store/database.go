package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// Table is a named view over one sub-document of a Database.
type Table interface {
	Name() string
	// Reset replaces the table contents with its default sub-document.
	Reset()
	// Load replaces the table contents with the decoded sub-document.
	Load(raw json.RawMessage) error
	// Dump encodes the table contents as its sub-document.
	Dump() (json.RawMessage, error)
}

// Database is a small document store on top of a Storage. Every mutating
// table operation commits the whole document, unless it runs inside
// Transaction, in which case the document is persisted once at the end.
type Database struct {
	storage Storage

	mu     sync.Mutex // guards doc, tables and the flush step
	doc    Document
	tables map[string]Table

	txMu sync.Mutex
	inTx atomic.Bool
}

// Open reads the current document from storage.
func Open(storage Storage) (*Database, error) {
	doc, err := storage.Read()
	if err != nil {
		return nil, err
	}
	return &Database{
		storage: storage,
		doc:     doc,
		tables:  make(map[string]Table),
	}, nil
}

// binding ties a table to its owning database and name.
type binding struct {
	db   *Database
	name string
}

func (b binding) Name() string { return b.name }

// createTable registers a table under name. A new name is seeded with the
// table's default content and persisted; an existing sub-document is loaded.
// Opening the same name twice returns the already registered table.
func createTable[T Table](db *Database, name string, build func(binding) T) (T, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var zero T
	if existing, ok := db.tables[name]; ok {
		t, ok := existing.(T)
		if !ok {
			return zero, fmt.Errorf("table %q already open as %T", name, existing)
		}
		return t, nil
	}

	t := build(binding{db: db, name: name})
	if raw, ok := db.doc[name]; ok {
		if err := t.Load(raw); err != nil {
			return zero, fmt.Errorf("failed to load table %q: %w", name, err)
		}
		db.tables[name] = t
		return t, nil
	}

	t.Reset()
	db.tables[name] = t
	if err := db.flushLocked(); err != nil {
		delete(db.tables, name)
		return zero, err
	}
	return t, nil
}

// Table returns the table registered under name.
func (db *Database) Table(name string) (Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// Tables returns the names of all open tables, sorted.
func (db *Database) Tables() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// markDirty is called by every mutating table operation. It panics if t is
// not the table registered under its own name.
func (db *Database) markDirty(t Table) error {
	db.mu.Lock()
	registered, ok := db.tables[t.Name()]
	db.mu.Unlock()
	if !ok || registered != t {
		panic(fmt.Sprintf("store: table %q is not bound to this database", t.Name()))
	}
	return db.Commit()
}

// Commit persists the whole document. Inside Transaction it is a no-op.
func (db *Database) Commit() error {
	if db.inTx.Load() {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.flushLocked()
}

func (db *Database) flushLocked() error {
	for name, t := range db.tables {
		raw, err := t.Dump()
		if err != nil {
			return fmt.Errorf("failed to encode table %q: %w", name, err)
		}
		db.doc[name] = raw
	}
	if err := db.storage.Write(db.doc); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Transaction runs fn with commits suppressed and persists the document once
// when fn returns. If fn returns an error the in-memory tables are rolled back
// to the last persisted document and the error is returned; the same happens
// when the final write fails. If fn panics the tables are rolled back before
// the panic continues. Transactions do not nest.
func (db *Database) Transaction(fn func() error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			if rbErr := db.Rollback(); rbErr != nil {
				utils.Debug("store: rollback after panic failed: %v", rbErr)
			}
			panic(r)
		}
	}()

	err := db.suppressCommits(fn)
	if err == nil {
		err = db.Commit()
	}
	if err != nil {
		if rbErr := db.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

func (db *Database) suppressCommits(fn func() error) error {
	db.inTx.Store(true)
	defer db.inTx.Store(false)
	return fn()
}

// Rollback discards in-memory changes by reloading every open table from the
// last persisted document.
func (db *Database) Rollback() error {
	doc, err := db.storage.Read()
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.doc = doc
	for name, t := range db.tables {
		raw, ok := doc[name]
		if !ok {
			t.Reset()
			continue
		}
		if err := t.Load(raw); err != nil {
			return fmt.Errorf("failed to reload table %q: %w", name, err)
		}
	}
	return nil
}

// Close persists the document and closes the storage.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.flushLocked(); err != nil {
		db.storage.Close()
		return err
	}
	return db.storage.Close()
}
