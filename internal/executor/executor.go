// Package executor owns the mapping from parsed statements to storage
// operations. A single goroutine drains a bounded request channel, so
// catalog and data-file writes need no locking: there is at most one
// writer at any time.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/emdrive/emdrive/internal/config"
	"github.com/emdrive/emdrive/internal/logging"
	"github.com/emdrive/emdrive/internal/schema"
	"github.com/emdrive/emdrive/internal/sql"
	"github.com/emdrive/emdrive/internal/storage/btree"
	"github.com/emdrive/emdrive/internal/storage/fsys"
	"github.com/emdrive/emdrive/internal/storage/system"
)

// maxInFlightRequests caps the request channel.
const maxInFlightRequests = 100

// QueryResult is the executor's answer to one statement.
type QueryResult struct {
	ColumnNames []string
	Rows        []schema.Row
}

// Outcome is what arrives on a payload's reply channel: a result or
// an error, never both.
type Outcome struct {
	Result *QueryResult
	Err    error
}

// Payload pairs a statement with its one-shot reply slot.
type Payload struct {
	Statement schema.Statement
	Reply     chan<- Outcome
}

// Executor processes statements against the catalog and table files.
type Executor struct {
	cfg      *config.Config
	store    *fsys.Store
	requests chan Payload
	// catalog holds the installed table definitions, owned exclusively
	// by the Run goroutine after bootstrap.
	catalog []*schema.TableDefinition
}

// New returns an executor rooted at the configured data directory.
func New(cfg *config.Config) *Executor {
	return &Executor{
		cfg:      cfg,
		store:    fsys.New(cfg.DataDirectory),
		requests: make(chan Payload, maxInFlightRequests),
	}
}

// Requests is the channel producers enqueue statements on.
func (e *Executor) Requests() chan<- Payload {
	return e.requests
}

// Run bootstraps the system tables and then processes requests until
// the context is canceled, draining whatever is already enqueued
// before returning.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.bootstrap(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	logging.Info("executor ready", "data_directory", e.cfg.DataDirectory)
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return nil
		case payload := <-e.requests:
			e.handle(payload)
		}
	}
}

// drain serves the requests that made it into the channel before
// shutdown.
func (e *Executor) drain() {
	for {
		select {
		case payload := <-e.requests:
			e.handle(payload)
		default:
			return
		}
	}
}

func (e *Executor) handle(payload Payload) {
	logging.Debug("executing statement", "statement", fmt.Sprintf("%T", payload.Statement))
	result, err := e.execute(payload.Statement)
	// The producer may have given up; a buffered reply slot means
	// this send never blocks the executor.
	payload.Reply <- Outcome{Result: result, Err: err}
}

// execute dispatches one statement to its storage operation.
func (e *Executor) execute(statement schema.Statement) (*QueryResult, error) {
	switch s := statement.(type) {
	case *schema.CreateTableStatement:
		return e.executeCreateTable(s)
	case *schema.InsertStatement:
		return e.executeInsert(s)
	case *schema.SelectStatement:
		return e.executeSelect(s)
	default:
		return nil, fmt.Errorf("unsupported statement type %T", statement)
	}
}

// bootstrap makes sure both system table files exist, creating blank
// ones when absent. It does not touch the catalog: the pinned
// system.columns schema carries no column names or order, so table
// definitions cannot be reconstructed from disk and are reinstalled
// by CREATE TABLE IF NOT EXISTS instead.
func (e *Executor) bootstrap() error {
	for _, table := range system.All() {
		if e.store.Exists(system.SchemaName, table.Name) {
			continue
		}
		if err := e.createBlankTableFile(system.SchemaName, table.Name); err != nil {
			return fmt.Errorf("initialize system table `%s`: %w", table.Name, err)
		}
		logging.Debug("initialized system table", "table", table.Name)
	}
	return nil
}

// lookupTable resolves a table name against the catalog. System
// tables are addressed as `system.tables` and `system.columns`.
func (e *Executor) lookupTable(name string) (string, *schema.TableDefinition, error) {
	switch name {
	case system.SchemaName + ".tables":
		tables := system.Tables()
		return system.SchemaName, &tables, nil
	case system.SchemaName + ".columns":
		columns := system.Columns()
		return system.SchemaName, &columns, nil
	}
	for _, table := range e.catalog {
		if table.Name == name {
			return system.DefaultSchemaName, table, nil
		}
	}
	return "", nil, &sql.ValidationError{
		Message: fmt.Sprintf("Table `%s` does not exist.", name),
	}
}

func (e *Executor) tree(schemaName string, table *schema.TableDefinition) *btree.Tree {
	return btree.New(e.store, schemaName, table)
}

// asRequestError maps storage-level rejections onto the error kinds
// the transport understands.
func asRequestError(err error) error {
	if errors.Is(err, btree.ErrDuplicateKey) || errors.Is(err, btree.ErrRowTooLarge) {
		return &sql.ValidationError{Message: err.Error()}
	}
	return err
}
