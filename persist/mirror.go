// Package persist implements the store's mirror: the single on-disk
// representation of the stored set, with schema-migration proxy decoding
// and an optional remote backend. It is grounded on the teacher's
// internal/state package, re-pointed from PKL text emission to
// encoding/json and corrected to write atomically.
package persist

import (
	"encoding/json"
	"sort"
)

// Entry is one stored resource's wire shape: its type tag, the raw
// payload bytes for that tag's current or historical schema, and the
// dependency keys recorded the last time this entry was successfully
// persisted (used to order destroy nodes for resources whose type has
// since been dropped from the caller's registry).
type Entry struct {
	TypeTag      string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	Dependencies []string        `json:"dependencies,omitempty"`
}

// Mirror is the full stored set: every resource key mapped to its
// entry. Marshaling always emits keys in sorted order so two mirrors
// holding the same content produce byte-identical files.
type Mirror struct {
	Entries map[string]Entry
}

// NewMirror returns an empty mirror, the shape Read returns for a
// backend that has never been written to.
func NewMirror() *Mirror {
	return &Mirror{Entries: make(map[string]Entry)}
}

// Get returns the entry for key and whether it was present.
func (m *Mirror) Get(key string) (Entry, bool) {
	e, ok := m.Entries[key]
	return e, ok
}

// Set stores or replaces the entry for key.
func (m *Mirror) Set(key string, e Entry) {
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}
	m.Entries[key] = e
}

// Delete removes key from the mirror.
func (m *Mirror) Delete(key string) {
	delete(m.Entries, key)
}

// Keys returns every resource key currently in the mirror, sorted.
func (m *Mirror) Keys() []string {
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the mirror as a plain object keyed by
// resource_key, matching the single mirror-file on-disk contract.
func (m *Mirror) MarshalJSON() ([]byte, error) {
	if m.Entries == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(m.Entries)
}

func (m *Mirror) UnmarshalJSON(data []byte) error {
	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.Entries = entries
	return nil
}
