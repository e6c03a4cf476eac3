package vectable

import "fmt"

// FindQuery selects rows by key or keys by row. Exactly one field must be
// set; anything else is a usage error, not a silent default.
type FindQuery struct {
	// Key looks up the row for one key. Unmapped keys yield -1, not an error.
	Key *uint64
	// Keys looks up rows for several keys, -1 for each unmapped key.
	Keys []uint64
	// Row reverse-looks up the first key (in insertion order) mapping to one
	// row. A row with no key is omitted from the result.
	Row *int
	// Rows reverse-looks up first keys for several rows; unmapped rows are
	// omitted, so the result may be shorter than the request.
	Rows []int
}

// FindResult holds the output of Find: Rows for key selectors, Keys for row
// selectors.
type FindResult struct {
	Rows []int32
	Keys []uint64
}

// Find resolves the single populated selector of q.
func (t *Table) Find(q FindQuery) (FindResult, error) {
	selectors := 0
	if q.Key != nil {
		selectors++
	}
	if q.Keys != nil {
		selectors++
	}
	if q.Row != nil {
		selectors++
	}
	if q.Rows != nil {
		selectors++
	}
	if selectors != 1 {
		return FindResult{}, fmt.Errorf("%w (got %d)", ErrInvalidSelector, selectors)
	}

	switch {
	case q.Key != nil:
		return FindResult{Rows: []int32{t.rowFor(*q.Key)}}, nil

	case q.Keys != nil:
		rows := make([]int32, len(q.Keys))
		for i, k := range q.Keys {
			rows[i] = t.rowFor(k)
		}
		return FindResult{Rows: rows}, nil

	case q.Row != nil:
		var ks []uint64
		if k, ok := t.index.FirstKeyForRow(int32(*q.Row)); ok {
			ks = append(ks, k)
		}
		return FindResult{Keys: ks}, nil

	default:
		var ks []uint64
		for _, row := range q.Rows {
			if k, ok := t.index.FirstKeyForRow(int32(row)); ok {
				ks = append(ks, k)
			}
		}
		return FindResult{Keys: ks}, nil
	}
}

func (t *Table) rowFor(key uint64) int32 {
	if row, ok := t.index.Get(key); ok {
		return row
	}
	return -1
}
