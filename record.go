package simjoin

import (
	"fmt"
	"sort"

	"github.com/echoface/simjoin/util"
)

const defaultKeyName = "id"

type (
	// Record a row identified by ID; a absent or nil attribute is a missing value
	Record struct {
		ID    string
		Attrs map[string]any
	}

	// Table a named collection of records with unique ids
	Table struct {
		Name string
		// Key column name used in output headers, default "id"
		Key     string
		Columns []string
		Records []Record

		position map[string]int
	}
)

// Value return the attribute value, ok is false when it's missing
func (r *Record) Value(attr string) (v any, ok bool) {
	if r.Attrs == nil {
		return nil, false
	}
	v, ok = r.Attrs[attr]
	if !ok || util.NilInterface(v) {
		return nil, false
	}
	return v, true
}

func NewTable(name string, columns ...string) *Table {
	return &Table{
		Name:     name,
		Key:      defaultKeyName,
		Columns:  append([]string(nil), columns...),
		position: make(map[string]int),
	}
}

// Append add a record, unseen attribute names extend Columns in sorted order
func (t *Table) Append(id string, attrs map[string]any) error {
	if len(id) == 0 {
		return newRecordError(StageValidate, t.Name, id, "", ErrEmptyID)
	}
	if t.position == nil {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if _, ok := t.position[id]; ok {
		return newRecordError(StageValidate, t.Name, id, "", ErrDuplicateID)
	}
	t.position[id] = len(t.Records)
	t.Records = append(t.Records, Record{ID: id, Attrs: attrs})

	var added []string
	for attr := range attrs {
		if !util.Contain(t.Columns, attr) {
			added = append(added, attr)
		}
	}
	sort.Strings(added)
	t.Columns = append(t.Columns, added...)
	return nil
}

// MustAppend panic when Append fail, for static data set up
func (t *Table) MustAppend(id string, attrs map[string]any) *Table {
	util.PanicIfErr(t.Append(id, attrs), "append record:%s fail", id)
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func (t *Table) KeyName() string {
	if len(t.Key) == 0 {
		return defaultKeyName
	}
	return t.Key
}

func (t *Table) HasColumn(attr string) bool {
	return util.Contain(t.Columns, attr)
}

// Get lookup a record by id, Validate must be called when Records was
// assigned directly
func (t *Table) Get(id string) (*Record, bool) {
	idx, ok := t.IndexOf(id)
	if !ok {
		return nil, false
	}
	return &t.Records[idx], true
}

func (t *Table) IndexOf(id string) (int, bool) {
	idx, ok := t.position[id]
	return idx, ok
}

// Validate rebuild the id lookup and check ids are non-empty and unique, the
// columns are extended with attributes only seen in records
func (t *Table) Validate() error {
	position := make(map[string]int, len(t.Records))
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = struct{}{}
	}
	var added []string
	for idx := range t.Records {
		rec := &t.Records[idx]
		if len(rec.ID) == 0 {
			return newRecordError(StageValidate, t.Name, fmt.Sprintf("#%d", idx), "", ErrEmptyID)
		}
		if _, ok := position[rec.ID]; ok {
			return newRecordError(StageValidate, t.Name, rec.ID, "", ErrDuplicateID)
		}
		position[rec.ID] = idx
		for attr := range rec.Attrs {
			if _, ok := seen[attr]; !ok {
				seen[attr] = struct{}{}
				added = append(added, attr)
			}
		}
	}
	sort.Strings(added)
	t.Columns = append(t.Columns, added...)
	t.position = position
	return nil
}
