// Package container provides specialized data structures for the vector table.
package container

import "iter"

// KeyMap is an insertion-ordered map from 64-bit keys to row indices.
//
// Iteration order is the order in which keys were first added; rebinding an
// existing key to a new row keeps its original position. This ordering is
// load-bearing: reverse (row to key) lookups resolve ties by picking the
// first key bound to a row, and serialization round-trips must preserve it.
type KeyMap struct {
	rows map[uint64]int32
	keys []uint64
}

// NewKeyMap creates an empty KeyMap.
func NewKeyMap() *KeyMap {
	return &KeyMap{
		rows: make(map[uint64]int32),
	}
}

// NewKeyMapSized creates an empty KeyMap with capacity for n keys.
func NewKeyMapSized(n int) *KeyMap {
	return &KeyMap{
		rows: make(map[uint64]int32, n),
		keys: make([]uint64, 0, n),
	}
}

// Get returns the row bound to key.
func (m *KeyMap) Get(key uint64) (int32, bool) {
	row, ok := m.rows[key]
	return row, ok
}

// Set binds key to row. An existing key keeps its insertion position.
func (m *KeyMap) Set(key uint64, row int32) {
	if _, ok := m.rows[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.rows[key] = row
}

// Delete removes key from the map, preserving the order of remaining keys.
func (m *KeyMap) Delete(key uint64) {
	if _, ok := m.rows[key]; !ok {
		return
	}
	delete(m.rows, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (m *KeyMap) Len() int {
	return len(m.keys)
}

// Keys returns an iterator over keys in insertion order.
func (m *KeyMap) Keys() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, k := range m.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Items returns an iterator over (key, row) pairs in insertion order.
func (m *KeyMap) Items() iter.Seq2[uint64, int32] {
	return func(yield func(uint64, int32) bool) {
		for _, k := range m.keys {
			if !yield(k, m.rows[k]) {
				return
			}
		}
	}
}

// FirstKeyForRow scans keys in insertion order and returns the first key
// bound to row.
func (m *KeyMap) FirstKeyForRow(row int32) (uint64, bool) {
	for _, k := range m.keys {
		if m.rows[k] == row {
			return k, true
		}
	}
	return 0, false
}

// Clone returns a deep copy of the map.
func (m *KeyMap) Clone() *KeyMap {
	c := NewKeyMapSized(len(m.keys))
	for _, k := range m.keys {
		c.keys = append(c.keys, k)
		c.rows[k] = m.rows[k]
	}
	return c
}
