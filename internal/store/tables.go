package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Pair is one key/value entry of a KVTable.
type Pair[V any] struct {
	Key   string
	Value V
}

// KVTable maps string keys to values of type V. Its sub-document is a JSON
// object keyed by the same strings.
type KVTable[V any] struct {
	binding
	data map[string]V
}

// NewKVTable opens the key/value table name on db.
func NewKVTable[V any](db *Database, name string) (*KVTable[V], error) {
	return createTable(db, name, func(b binding) *KVTable[V] {
		return &KVTable[V]{binding: b}
	})
}

func (t *KVTable[V]) Reset() { t.data = make(map[string]V) }

func (t *KVTable[V]) Load(raw json.RawMessage) error {
	data := make(map[string]V)
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]V)
	}
	t.data = data
	return nil
}

func (t *KVTable[V]) Dump() (json.RawMessage, error) { return json.Marshal(t.data) }

// Set stores value under key, replacing any previous value.
func (t *KVTable[V]) Set(key string, value V) error {
	t.data[key] = value
	return t.db.markDirty(t)
}

// Insert stores value under key, failing with ErrIntegrity if key exists.
func (t *KVTable[V]) Insert(key string, value V) error {
	if _, ok := t.data[key]; ok {
		return fmt.Errorf("%w: %s", ErrIntegrity, key)
	}
	return t.Set(key, value)
}

// Get returns the value stored under key or ErrNotFound.
func (t *KVTable[V]) Get(key string) (V, error) {
	v, ok := t.data[key]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

func (t *KVTable[V]) Has(key string) bool {
	_, ok := t.data[key]
	return ok
}

// Drop removes key. Dropping an absent key is a no-op.
func (t *KVTable[V]) Drop(key string) error {
	if _, ok := t.data[key]; !ok {
		return nil
	}
	delete(t.data, key)
	return t.db.markDirty(t)
}

// All returns a snapshot of every entry, sorted by key. Mutating the table
// afterwards does not affect the returned slice.
func (t *KVTable[V]) All() []Pair[V] {
	return t.FindAll(func(string, V) bool { return true })
}

// FindAll returns the entries matching pred, sorted by key.
func (t *KVTable[V]) FindAll(pred func(key string, value V) bool) []Pair[V] {
	out := make([]Pair[V], 0, len(t.data))
	for k, v := range t.data {
		if pred(k, v) {
			out = append(out, Pair[V]{Key: k, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// FindOne returns the single entry matching pred. Zero matches yield
// ErrNotFound, more than one ErrMultipleResults.
func (t *KVTable[V]) FindOne(pred func(key string, value V) bool) (Pair[V], error) {
	return one(t.FindAll(pred), t.name)
}

func (t *KVTable[V]) Len() int { return len(t.data) }

// IDMapping is a bijective mapping between native and external ids.
type IDMapping struct {
	binding
	native  map[string]string
	reverse map[string]string
}

type idMappingDoc struct {
	Native  map[string]string `json:"native"`
	Reverse map[string]string `json:"reverse"`
}

// NewIDMapping opens the id mapping table name on db.
func NewIDMapping(db *Database, name string) (*IDMapping, error) {
	return createTable(db, name, func(b binding) *IDMapping {
		return &IDMapping{binding: b}
	})
}

func (m *IDMapping) Reset() {
	m.native = make(map[string]string)
	m.reverse = make(map[string]string)
}

func (m *IDMapping) Load(raw json.RawMessage) error {
	var doc idMappingDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	m.Reset()
	for k, v := range doc.Native {
		m.native[k] = v
	}
	for k, v := range doc.Reverse {
		m.reverse[k] = v
	}
	return nil
}

func (m *IDMapping) Dump() (json.RawMessage, error) {
	return json.Marshal(idMappingDoc{Native: m.native, Reverse: m.reverse})
}

// Map records native <-> external. Pairs previously involving either id
// are removed so both directions stay consistent.
func (m *IDMapping) Map(native, external string) error {
	if old, ok := m.native[native]; ok {
		delete(m.reverse, old)
	}
	if old, ok := m.reverse[external]; ok {
		delete(m.native, old)
	}
	m.native[native] = external
	m.reverse[external] = native
	return m.db.markDirty(m)
}

// Unmap removes the pair for native. Unmapping an absent id is a no-op.
func (m *IDMapping) Unmap(native string) error {
	external, ok := m.native[native]
	if !ok {
		return nil
	}
	delete(m.native, native)
	delete(m.reverse, external)
	return m.db.markDirty(m)
}

// GetNative returns the native id mapped to external.
func (m *IDMapping) GetNative(external string) (string, error) {
	v, ok := m.reverse[external]
	if !ok {
		return "", fmt.Errorf("%w: external id %s", ErrNotFound, external)
	}
	return v, nil
}

// GetExternal returns the external id mapped to native.
func (m *IDMapping) GetExternal(native string) (string, error) {
	v, ok := m.native[native]
	if !ok {
		return "", fmt.Errorf("%w: native id %s", ErrNotFound, native)
	}
	return v, nil
}

func (m *IDMapping) Len() int { return len(m.native) }

// Row is one document of a DocumentTable.
type Row[D any] struct {
	ID  int
	Doc D
}

// DocumentTable stores documents under auto-incremented integer ids.
type DocumentTable[D any] struct {
	binding
	data   map[int]D
	nextID int
}

// NewDocumentTable opens the document table name on db.
func NewDocumentTable[D any](db *Database, name string) (*DocumentTable[D], error) {
	return createTable(db, name, func(b binding) *DocumentTable[D] {
		return &DocumentTable[D]{binding: b}
	})
}

func (t *DocumentTable[D]) Reset() {
	t.data = make(map[int]D)
	t.nextID = 1
}

func (t *DocumentTable[D]) Load(raw json.RawMessage) error {
	data := make(map[int]D)
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	if data == nil {
		data = make(map[int]D)
	}
	t.data = data
	t.nextID = 1
	for id := range data {
		if id >= t.nextID {
			t.nextID = id + 1
		}
	}
	return nil
}

func (t *DocumentTable[D]) Dump() (json.RawMessage, error) { return json.Marshal(t.data) }

// Insert stores doc and returns its id.
func (t *DocumentTable[D]) Insert(doc D) (int, error) {
	id := t.nextID
	t.nextID++
	t.data[id] = doc
	if err := t.db.markDirty(t); err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the document with the given id or ErrNotFound.
func (t *DocumentTable[D]) Get(id int) (D, error) {
	doc, ok := t.data[id]
	if !ok {
		var zero D
		return zero, fmt.Errorf("%w: document %d", ErrNotFound, id)
	}
	return doc, nil
}

// FindAll returns the documents matching pred in id order.
func (t *DocumentTable[D]) FindAll(pred func(D) bool) []Row[D] {
	out := make([]Row[D], 0)
	for id, doc := range t.data {
		if pred(doc) {
			out = append(out, Row[D]{ID: id, Doc: doc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindOne returns the single document matching pred.
func (t *DocumentTable[D]) FindOne(pred func(D) bool) (Row[D], error) {
	return one(t.FindAll(pred), t.name)
}

// Delete removes every document matching pred and returns how many were
// removed.
func (t *DocumentTable[D]) Delete(pred func(D) bool) (int, error) {
	n := 0
	for id, doc := range t.data {
		if pred(doc) {
			delete(t.data, id)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, t.db.markDirty(t)
}

func (t *DocumentTable[D]) Len() int { return len(t.data) }

func one[R any](rows []R, table string) (R, error) {
	var zero R
	switch len(rows) {
	case 0:
		return zero, fmt.Errorf("%w: no match in %s", ErrNotFound, table)
	case 1:
		return rows[0], nil
	default:
		return zero, fmt.Errorf("%w: %d matches in %s", ErrMultipleResults, len(rows), table)
	}
}

var (
	_ Table = (*KVTable[int])(nil)
	_ Table = (*IDMapping)(nil)
	_ Table = (*DocumentTable[int])(nil)
)
