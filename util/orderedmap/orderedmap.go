//  Copyright (c) 2025 the nullvet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package orderedmap provides a map with deterministic, insertion-ordered
// iteration. The flow environment and the report archive both rely on the
// ordering to keep analysis output and encodings reproducible across runs.
package orderedmap

import (
	"bytes"
	"encoding/gob"
	"io"
)

// Pair is one key/value entry, in insertion order.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// OrderedMap is a map that additionally keeps its entries in insertion
// order. The zero value is not usable; call New.
type OrderedMap[K comparable, V any] struct {
	// Pairs exposes the entries in insertion order for range loops. Callers
	// must not reorder it; use Store to mutate the map.
	Pairs []Pair[K, V]
	index map[K]int
}

// New creates an empty OrderedMap.
func New[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int)}
}

// Load returns the value stored under key, if any.
func (m *OrderedMap[K, V]) Load(key K) (V, bool) {
	if i, ok := m.index[key]; ok {
		return m.Pairs[i].Value, true
	}
	var zero V
	return zero, false
}

// Store inserts or updates the value under key, keeping first-insertion
// order for existing keys.
func (m *OrderedMap[K, V]) Store(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.Pairs[i].Value = value
		return
	}
	m.index[key] = len(m.Pairs)
	m.Pairs = append(m.Pairs, Pair[K, V]{Key: key, Value: value})
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int { return len(m.Pairs) }

// Clone returns a shallow copy sharing no mutable state with m.
func (m *OrderedMap[K, V]) Clone() *OrderedMap[K, V] {
	out := &OrderedMap[K, V]{
		Pairs: make([]Pair[K, V], len(m.Pairs)),
		index: make(map[K]int, len(m.index)),
	}
	copy(out.Pairs, m.Pairs)
	for k, i := range m.index {
		out.index[k] = i
	}
	return out
}

// GobEncode encodes the entries in insertion order, making the encoding
// deterministic for equal maps built in the same order.
func (m *OrderedMap[K, V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, p := range m.Pairs {
		if err := enc.Encode(p.Key); err != nil {
			return nil, err
		}
		if err := enc.Encode(p.Value); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// GobDecode decodes entries encoded by GobEncode.
func (m *OrderedMap[K, V]) GobDecode(b []byte) error {
	m.Pairs = nil
	m.index = make(map[K]int)
	dec := gob.NewDecoder(bytes.NewBuffer(b))
	for {
		var k K
		if err := dec.Decode(&k); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Store(k, v)
	}
}
