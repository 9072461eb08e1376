// Package fsys maps (schema, table) pairs to files under the data
// directory and moves whole pages between them and memory.
//
// Each table lives at <data_dir>/<schema>/<table>/0 - a concatenation
// of fixed-size pages, page 0 first. The adapter never interprets the
// bytes it carries; ordering and durability are the caller's concern.
package fsys

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emdrive/emdrive/internal/storage/paging"
)

// Store performs page-granular I/O under one data directory.
type Store struct {
	dataDirectory string
}

// New returns a store rooted at the given data directory.
func New(dataDirectory string) *Store {
	return &Store{dataDirectory: dataDirectory}
}

// tableFilePath resolves <data_dir>/<schema>/<table>/0.
func (s *Store) tableFilePath(schemaName, tableName string) string {
	return filepath.Join(s.dataDirectory, schemaName, tableName, "0")
}

// Exists reports whether the table's data file is present.
func (s *Store) Exists(schemaName, tableName string) bool {
	info, err := os.Stat(s.tableFilePath(schemaName, tableName))
	return err == nil && info.Mode().IsRegular()
}

// CreateTableFile creates the table's directory hierarchy and writes
// the initial file contents.
func (s *Store) CreateTableFile(schemaName, tableName string, blob []byte) error {
	dir := filepath.Dir(s.tableFilePath(schemaName, tableName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}
	if err := os.WriteFile(s.tableFilePath(schemaName, tableName), blob, 0o644); err != nil {
		return fmt.Errorf("write table file: %w", err)
	}
	return nil
}

// ReadPage reads one page at the given index.
func (s *Store) ReadPage(schemaName, tableName string, pageIndex uint32) ([]byte, error) {
	file, err := os.Open(s.tableFilePath(schemaName, tableName))
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer file.Close()
	blob := make([]byte, paging.PageSize)
	n, err := file.ReadAt(blob, int64(pageIndex)*paging.PageSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read page %d: %w", pageIndex, err)
	}
	return blob[:n], nil
}

// WritePage writes exactly one page at the given index, extending the
// file if the index is just past its current end.
func (s *Store) WritePage(schemaName, tableName string, pageIndex uint32, blob []byte) error {
	if len(blob) != paging.PageSize {
		return fmt.Errorf("refusing to write a %d-byte blob as a page", len(blob))
	}
	file, err := os.OpenFile(s.tableFilePath(schemaName, tableName), os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open table file: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteAt(blob, int64(pageIndex)*paging.PageSize); err != nil {
		return fmt.Errorf("write page %d: %w", pageIndex, err)
	}
	return nil
}

// PageCount returns the number of whole pages in the table's file.
// New pages are allocated by writing at this index.
func (s *Store) PageCount(schemaName, tableName string) (uint32, error) {
	info, err := os.Stat(s.tableFilePath(schemaName, tableName))
	if err != nil {
		return 0, fmt.Errorf("stat table file: %w", err)
	}
	return uint32(info.Size() / paging.PageSize), nil
}
