package keys

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"
)

// Store is an in-memory two-way term store: it normalizes terms to keys and
// remembers the reverse mapping. It supports persistence via Save/Load.
type Store struct {
	mu    sync.RWMutex
	norm  Normalizer
	terms map[uint64]string
}

// NewStore creates a Store backed by the default XXHash normalizer.
func NewStore() *Store {
	return NewStoreWithNormalizer(XXHash{})
}

// NewStoreWithNormalizer creates a Store backed by the given normalizer.
func NewStoreWithNormalizer(n Normalizer) *Store {
	return &Store{
		norm:  n,
		terms: make(map[uint64]string),
	}
}

// Key returns the canonical key for term without interning it.
func (s *Store) Key(term string) uint64 {
	return s.norm.Key(term)
}

// Add interns term and returns its key.
func (s *Store) Add(term string) uint64 {
	k := s.norm.Key(term)
	s.mu.Lock()
	s.terms[k] = term
	s.mu.Unlock()
	return k
}

// Term returns the interned term for key.
func (s *Store) Term(key uint64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term, ok := s.terms[key]
	return term, ok
}

// Len returns the number of interned terms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms)
}

// Save persists the store to w.
// Format: [Count: 8 bytes] [Entry...]
// Entry: [Key: 8 bytes] [TermLen: 4 bytes] [Term...]
func (s *Store) Save(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(s.terms))); err != nil {
		return err
	}

	for k, term := range s.terms {
		if err := binary.Write(bw, binary.LittleEndian, k); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(term))); err != nil {
			return err
		}
		if _, err := bw.WriteString(term); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load populates the store from r, replacing its contents.
func (s *Store) Load(r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	br := bufio.NewReader(r)

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	s.terms = make(map[uint64]string, count)

	for i := uint64(0); i < count; i++ {
		var k uint64
		if err := binary.Read(br, binary.LittleEndian, &k); err != nil {
			return err
		}
		var termLen uint32
		if err := binary.Read(br, binary.LittleEndian, &termLen); err != nil {
			return err
		}
		term := make([]byte, termLen)
		if _, err := io.ReadFull(br, term); err != nil {
			return err
		}
		s.terms[k] = string(term)
	}

	return nil
}
