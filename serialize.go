package vectable

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/lexkit/vectable/blobstore"
	"github.com/lexkit/vectable/codec"
	"github.com/lexkit/vectable/internal/hash"
	"github.com/lexkit/vectable/matrix"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// Artifact names. The vectors and key2row artifacts are independent: each is
// optional on write (via the exclude list) and order-independent on read.
const (
	SectionVectors = "vectors"
	SectionKey2Row = "key2row"
	// SectionKeys is a legacy artifact: a positional key array aligned to
	// matrix rows. Read-only; it reconstructs key2row when the dedicated
	// artifact is absent.
	SectionKeys = "keys"
	// SectionManifest is a diagnostic JSON summary written alongside disk
	// snapshots. Never required on load.
	SectionManifest = "manifest"
)

// Compression selects how the vectors artifact payload is compressed.
// The artifact header records the choice, so loading is self-describing.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// vectors artifact layout, little-endian:
//
//	magic "VTB1" | compression u8 | dtype u8 | reserved u16 |
//	rows u32 | dims u32 | crc32c u32 (of the raw payload) | payload
var vectorsMagic = [4]byte{'V', 'T', 'B', '1'}

const (
	vectorsHeaderSize = 4 + 1 + 1 + 2 + 4 + 4 + 4
	dtypeFloat32      = 0
)

// ErrBadArtifact indicates a vectors artifact that failed structural or
// checksum validation.
type ErrBadArtifact struct {
	Reason string
}

func (e *ErrBadArtifact) Error() string {
	return fmt.Sprintf("bad vectors artifact: %s", e.Reason)
}

type key2rowPayload struct {
	Keys []uint64 `msgpack:"keys" json:"keys"`
	Rows []int32  `msgpack:"rows" json:"rows"`
}

type envelope struct {
	Codec    string            `msgpack:"codec"`
	Sections map[string][]byte `msgpack:"sections"`
}

type manifest struct {
	Rows        int      `json:"rows"`
	Dims        int      `json:"dims"`
	NKeys       int      `json:"n_keys"`
	Sections    []string `json:"sections"`
	Codec       string   `json:"codec"`
	Compression string   `json:"compression"`
}

func excluded(name string, exclude []string) bool {
	for _, e := range exclude {
		if e == name {
			return true
		}
	}
	return false
}

// encodeVectors serializes the matrix in the table's binary array format.
func (t *Table) encodeVectors() ([]byte, error) {
	rows, dims := t.Shape()
	raw := make([]byte, rows*dims*4)
	for i, v := range t.data.Data() {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	payload, err := compress(raw, t.compression)
	if err != nil {
		return nil, err
	}

	out := make([]byte, vectorsHeaderSize, vectorsHeaderSize+len(payload))
	copy(out[0:4], vectorsMagic[:])
	out[4] = byte(t.compression)
	out[5] = dtypeFloat32
	binary.LittleEndian.PutUint32(out[8:], uint32(rows))
	binary.LittleEndian.PutUint32(out[12:], uint32(dims))
	binary.LittleEndian.PutUint32(out[16:], hash.CRC32C(raw))
	return append(out, payload...), nil
}

func decodeVectors(data []byte) (rows, dims int, values []float32, err error) {
	if len(data) < vectorsHeaderSize {
		return 0, 0, nil, &ErrBadArtifact{Reason: "truncated header"}
	}
	if !bytes.Equal(data[0:4], vectorsMagic[:]) {
		return 0, 0, nil, &ErrBadArtifact{Reason: "bad magic"}
	}
	compression := Compression(data[4])
	if data[5] != dtypeFloat32 {
		return 0, 0, nil, &ErrBadArtifact{Reason: fmt.Sprintf("unsupported dtype %d", data[5])}
	}
	rows = int(binary.LittleEndian.Uint32(data[8:]))
	dims = int(binary.LittleEndian.Uint32(data[12:]))
	wantCRC := binary.LittleEndian.Uint32(data[16:])

	raw, err := decompress(data[vectorsHeaderSize:], compression)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(raw) != rows*dims*4 {
		return 0, 0, nil, &ErrBadArtifact{Reason: "payload length does not match shape"}
	}
	if hash.CRC32C(raw) != wantCRC {
		return 0, 0, nil, &ErrBadArtifact{Reason: "checksum mismatch"}
	}

	values = make([]float32, rows*dims)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return rows, dims, values, nil
}

func compress(raw []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, &ErrBadArtifact{Reason: fmt.Sprintf("unknown compression %d", uint8(c))}
	}
}

func decompress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(payload, nil)
	default:
		return nil, &ErrBadArtifact{Reason: fmt.Sprintf("unknown compression %d", uint8(c))}
	}
}

func (t *Table) encodeKey2Row(c codec.Codec) ([]byte, error) {
	p := key2rowPayload{
		Keys: make([]uint64, 0, t.index.Len()),
		Rows: make([]int32, 0, t.index.Len()),
	}
	for k, row := range t.index.Items() {
		p.Keys = append(p.Keys, k)
		p.Rows = append(p.Rows, row)
	}
	return c.Marshal(p)
}

func (t *Table) loadKey2Row(data []byte, c codec.Codec) error {
	var p key2rowPayload
	if err := c.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode key2row: %w", err)
	}
	if len(p.Keys) != len(p.Rows) {
		return &ErrBadArtifact{Reason: "key2row arrays disagree in length"}
	}
	for i, k := range p.Keys {
		t.index.Set(k, p.Rows[i])
	}
	return nil
}

// recomputeFree rebuilds the free set after a load: every row referenced by
// a loaded key mapping is committed. Shape/key mismatches are not validated
// here; out-of-range rows surface as errors on use.
func (t *Table) recomputeFree() {
	t.free.Clear()
	if rows := t.data.Rows(); rows > 0 {
		t.free.AddRange(0, uint64(rows))
	}
	for _, row := range t.index.Items() {
		t.free.Remove(uint32(row))
	}
}

// ToBytes serializes the table into a single self-describing byte buffer.
// Named sections can be excluded (SectionVectors, SectionKey2Row).
func (t *Table) ToBytes(exclude ...string) ([]byte, error) {
	env := envelope{
		Codec:    codec.Default.Name(),
		Sections: make(map[string][]byte, 2),
	}

	if !excluded(SectionVectors, exclude) {
		b, err := t.encodeVectors()
		if err != nil {
			return nil, err
		}
		env.Sections[SectionVectors] = b
	}
	if !excluded(SectionKey2Row, exclude) {
		b, err := t.encodeKey2Row(codec.Default)
		if err != nil {
			return nil, err
		}
		env.Sections[SectionKey2Row] = b
	}

	return codec.Msgpack{}.Marshal(env)
}

// FromBytes restores a table serialized by ToBytes. Sections are applied
// order-independently; a missing section simply leaves that part empty.
func FromBytes(data []byte, optFns ...Option) (*Table, error) {
	var env envelope
	if err := (codec.Msgpack{}).Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	c, ok := codec.ByName(env.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown section codec %q", env.Codec)
	}

	t := New(0, 0, optFns...)

	if b, ok := env.Sections[SectionVectors]; ok {
		rows, dims, values, err := decodeVectors(b)
		if err != nil {
			return nil, err
		}
		if err := t.adoptMatrix(rows, dims, values); err != nil {
			return nil, err
		}
	}
	if b, ok := env.Sections[SectionKey2Row]; ok {
		if err := t.loadKey2Row(b, c); err != nil {
			return nil, err
		}
	}

	t.recomputeFree()
	return t, nil
}

func (t *Table) adoptMatrix(rows, dims int, values []float32) error {
	m, err := matrix.NewDenseFromData(rows, dims, values)
	if err != nil {
		return err
	}
	t.data = m
	return nil
}

// SaveTo writes the table's artifacts to a blob store. The vectors and
// key2row artifacts are written concurrently; a manifest summary is written
// last. Named sections can be excluded.
func (t *Table) SaveTo(ctx context.Context, store blobstore.Store, exclude ...string) error {
	var sections []string

	g, gctx := errgroup.WithContext(ctx)

	if !excluded(SectionVectors, exclude) {
		sections = append(sections, SectionVectors)
		g.Go(func() error {
			b, err := t.encodeVectors()
			if err == nil {
				err = store.Put(gctx, SectionVectors, b)
			}
			t.logger.LogSnapshot(gctx, SectionVectors, len(b), err)
			return err
		})
	}
	if !excluded(SectionKey2Row, exclude) {
		sections = append(sections, SectionKey2Row)
		g.Go(func() error {
			b, err := t.encodeKey2Row(codec.Default)
			if err == nil {
				err = store.Put(gctx, SectionKey2Row, b)
			}
			t.logger.LogSnapshot(gctx, SectionKey2Row, len(b), err)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rows, dims := t.Shape()
	mb, err := (codec.GoJSON{}).Marshal(manifest{
		Rows:        rows,
		Dims:        dims,
		NKeys:       t.NKeys(),
		Sections:    sections,
		Codec:       codec.Default.Name(),
		Compression: t.compression.String(),
	})
	if err != nil {
		return err
	}
	return store.Put(ctx, SectionManifest, mb)
}

// LoadFrom restores a table from a blob store written by SaveTo. Artifacts
// are independent: whichever of vectors/key2row exists is loaded. When
// key2row is absent but a legacy keys artifact exists, each key is re-added
// at its positional row index to reconstruct the index.
func LoadFrom(ctx context.Context, store blobstore.Store, optFns ...Option) (*Table, error) {
	t := New(0, 0, optFns...)

	if b, err := readArtifact(ctx, store, SectionVectors); err == nil {
		rows, dims, values, derr := decodeVectors(b)
		if derr != nil {
			return nil, derr
		}
		if err := t.adoptMatrix(rows, dims, values); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	if b, err := readArtifact(ctx, store, SectionKey2Row); err == nil {
		if err := t.loadKey2Row(b, codec.Default); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	} else if b, err := readArtifact(ctx, store, SectionKeys); err == nil {
		var ks []uint64
		if err := codec.Default.Unmarshal(b, &ks); err != nil {
			return nil, fmt.Errorf("decode legacy keys: %w", err)
		}
		for i, k := range ks {
			t.index.Set(k, int32(i))
		}
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	t.recomputeFree()
	return t, nil
}

func readArtifact(ctx context.Context, store blobstore.Store, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(blob)
	if err != nil {
		return nil, err
	}
	// Copy out of any mmapped region before the blob closes.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ToDisk writes the table's artifacts into a directory.
func (t *Table) ToDisk(dir string, exclude ...string) error {
	store, err := blobstore.NewLocalStore(dir)
	if err != nil {
		return err
	}
	return t.SaveTo(context.Background(), store, exclude...)
}

// FromDisk restores a table from a directory written by ToDisk.
func FromDisk(dir string, optFns ...Option) (*Table, error) {
	store, err := blobstore.NewLocalStore(dir)
	if err != nil {
		return nil, err
	}
	return LoadFrom(context.Background(), store, optFns...)
}
