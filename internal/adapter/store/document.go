package store

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/solewatch/solewatch/internal/core/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is a single-file JSON document store: one object keyed by table
// name, each table an ordered array of records. A missing file reads as an
// empty store. Writers serialize on the store mutex and commit through a
// temp-file rename so readers never see a torn file.
type Document struct {
	fs   afero.Fs
	path string
	mu   sync.RWMutex
}

func OpenDocument(fs afero.Fs, path string) *Document {
	return &Document{fs: fs, path: path}
}

func (d *Document) Path() string {
	return d.path
}

// All returns the records of a table in stored order. Unknown tables are
// empty, not an error.
func (d *Document) All(table string) ([]jsoniter.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tables, err := d.load()
	if err != nil {
		return nil, err
	}

	return tables[table], nil
}

// ReplaceAll truncates the table and inserts the given records.
func (d *Document) ReplaceAll(table string, records []jsoniter.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tables, err := d.load()
	if err != nil {
		return err
	}

	if records == nil {
		records = []jsoniter.RawMessage{}
	}

	tables[table] = records

	return d.save(tables)
}

// Where returns the records whose top-level field equals value.
func (d *Document) Where(table, field, value string) ([]jsoniter.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tables, err := d.load()
	if err != nil {
		return nil, err
	}

	var matches []jsoniter.RawMessage

	for _, record := range tables[table] {
		if gjson.GetBytes(record, field).String() == value {
			matches = append(matches, record)
		}
	}

	return matches, nil
}

// UpdateWhere replaces the single record whose field equals value. Zero or
// multiple matches fail without touching the file.
func (d *Document) UpdateWhere(table, field, value string, record jsoniter.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tables, err := d.load()
	if err != nil {
		return err
	}

	matched := -1

	for i, existing := range tables[table] {
		if gjson.GetBytes(existing, field).String() != value {
			continue
		}

		if matched >= 0 {
			return domain.NewValidationError(field, value, "matches more than one record in "+table)
		}

		matched = i
	}

	if matched < 0 {
		return domain.NewLookupError("record in "+table, value, nil)
	}

	tables[table][matched] = record

	return d.save(tables)
}

func (d *Document) load() (map[string][]jsoniter.RawMessage, error) {
	exists, err := afero.Exists(d.fs, d.path)
	if err != nil {
		return nil, domain.NewStorageError("load", d.path, err)
	}

	if !exists {
		return map[string][]jsoniter.RawMessage{}, nil
	}

	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return nil, domain.NewStorageError("load", d.path, err)
	}

	if len(data) == 0 {
		return map[string][]jsoniter.RawMessage{}, nil
	}

	var tables map[string][]jsoniter.RawMessage
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, domain.NewStorageError("load", d.path, err)
	}

	if tables == nil {
		tables = map[string][]jsoniter.RawMessage{}
	}

	return tables, nil
}

func (d *Document) save(tables map[string][]jsoniter.RawMessage) error {
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return domain.NewStorageError("save", d.path, err)
	}

	tmp := d.path + ".tmp"
	if err := afero.WriteFile(d.fs, tmp, data, 0o644); err != nil {
		return domain.NewStorageError("save", d.path, err)
	}

	if err := d.fs.Rename(tmp, d.path); err != nil {
		return domain.NewStorageError("save", d.path, err)
	}

	return nil
}
