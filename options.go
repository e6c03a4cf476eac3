package vectable

import (
	"github.com/lexkit/vectable/keys"
	"github.com/lexkit/vectable/matrix"
)

type options struct {
	backend     matrix.Backend
	normalizer  keys.Normalizer
	logger      *Logger
	compression Compression
}

// Option configures table construction and load behavior.
type Option func(*options)

// WithBackend configures the numeric backend used for storage and search.
// Defaults to the CPU backend. The table uses this backend for all of its
// math; it never copies data to a different backend implicitly.
func WithBackend(b matrix.Backend) Option {
	return func(o *options) {
		if b == nil {
			b = matrix.CPU{}
		}
		o.backend = b
	}
}

// WithNormalizer configures the key normalizer used by the term-accepting
// operations. Defaults to keys.XXHash.
func WithNormalizer(n keys.Normalizer) Option {
	return func(o *options) {
		if n == nil {
			n = keys.XXHash{}
		}
		o.normalizer = n
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithCompression configures compression of the vectors artifact on save.
// Loading is self-describing and ignores this setting.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		backend:     matrix.CPU{},
		normalizer:  keys.XXHash{},
		logger:      NoopLogger(),
		compression: CompressionNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// AddOption configures a single Add call.
type AddOption func(*addOptions)

type addOptions struct {
	row    int
	hasRow bool
	vector []float32
}

// AddRow directs the key to a specific row (caller-directed placement).
// The binding overwrites whatever key previously mapped the row index in the
// key index; stale aliases pointing at the same row are not removed.
func AddRow(row int) AddOption {
	return func(o *addOptions) {
		o.row = row
		o.hasRow = true
	}
}

// AddVector writes the vector payload into the resolved row, committing it
// (the row leaves the free set).
func AddVector(vec []float32) AddOption {
	return func(o *addOptions) {
		o.vector = vec
	}
}

// SearchOption configures a MostSimilar call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	n         int
	batchSize int
	sorted    bool
}

// WithN sets how many rows to return per query. Defaults to 10.
func WithN(n int) SearchOption {
	return func(o *searchOptions) {
		o.n = n
	}
}

// WithBatchSize sets how many query rows are scored at a time, bounding peak
// memory to roughly batchSize x rows scores. Defaults to 1024.
func WithBatchSize(size int) SearchOption {
	return func(o *searchOptions) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithoutSort skips the per-query descending sort of the selected rows.
// The selected set is identical either way; only its order differs.
func WithoutSort() SearchOption {
	return func(o *searchOptions) {
		o.sorted = false
	}
}
