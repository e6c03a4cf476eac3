// Package glove imports legacy text-vector directories: a vocabulary text
// file (one term per line, line number = row index) next to a raw binary
// matrix file named by dimensionality/dtype convention, e.g.
// vectors.300.f32.bin. This is a one-time migration path, not part of the
// table's steady-state contract.
package glove

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/lexkit/vectable"
	"github.com/lexkit/vectable/keys"
	"github.com/lexkit/vectable/matrix"
)

// VocabFileName is the expected vocabulary file inside an import directory.
const VocabFileName = "vocab.txt"

var binNamePattern = regexp.MustCompile(`^vectors\.(\d+)\.(f32|f64)\.bin$`)

// ErrImportFormat indicates a vector directory that cannot be imported:
// a missing artifact or one whose contents contradict its naming convention.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrImportFormat struct {
	Path   string
	Reason string
	cause  error
}

func (e *ErrImportFormat) Error() string {
	return fmt.Sprintf("invalid vector directory %s: %s", e.Path, e.Reason)
}

func (e *ErrImportFormat) Unwrap() error { return e.cause }

// Import reads a legacy vector directory and returns a populated table plus
// the reconstructed key store (term i interned at row i).
func Import(dir string, optFns ...vectable.Option) (*vectable.Table, *keys.Store, error) {
	terms, err := readVocab(filepath.Join(dir, VocabFileName))
	if err != nil {
		return nil, nil, err
	}

	binPath, dims, itemSize, err := findMatrixFile(dir)
	if err != nil {
		return nil, nil, err
	}

	data, err := readMatrix(binPath, len(terms), dims, itemSize)
	if err != nil {
		return nil, nil, err
	}

	m, err := matrix.NewDenseFromData(len(terms), dims, data)
	if err != nil {
		return nil, nil, err
	}

	store := keys.NewStore()
	ks := make([]uint64, len(terms))
	for i, term := range terms {
		ks[i] = store.Add(term)
	}

	table, err := vectable.NewFromData(m, ks, optFns...)
	if err != nil {
		return nil, nil, err
	}
	return table, store, nil
}

func readVocab(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ErrImportFormat{Path: path, Reason: "vocabulary file not readable", cause: err}
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		terms = append(terms, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, &ErrImportFormat{Path: path, Reason: "vocabulary file not readable", cause: err}
	}
	return terms, nil
}

// findMatrixFile locates the single vectors.<dims>.<dtype>.bin artifact.
func findMatrixFile(dir string) (path string, dims, itemSize int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, 0, &ErrImportFormat{Path: dir, Reason: "directory not readable", cause: err}
	}

	for _, e := range entries {
		m := binNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		dims, err := strconv.Atoi(m[1])
		if err != nil || dims <= 0 {
			continue
		}
		itemSize := 4
		if m[2] == "f64" {
			itemSize = 8
		}
		return filepath.Join(dir, e.Name()), dims, itemSize, nil
	}

	return "", 0, 0, &ErrImportFormat{Path: dir, Reason: "no vectors.<dims>.<dtype>.bin artifact found"}
}

func readMatrix(path string, rows, dims, itemSize int) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrImportFormat{Path: path, Reason: "matrix file not readable", cause: err}
	}

	want := rows * dims * itemSize
	if len(raw) != want {
		return nil, &ErrImportFormat{
			Path:   path,
			Reason: fmt.Sprintf("size %d does not match %d rows of %d x %d-byte values", len(raw), rows, dims, itemSize),
		}
	}

	out := make([]float32, rows*dims)
	switch itemSize {
	case 4:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case 8:
		// Legacy f64 matrices are downconverted; the table is float32.
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	}
	return out, nil
}
