// Package vectable provides a dense, key-addressable vector store: a table
// of fixed-width float32 vectors where each row can be bound to zero, one,
// or many external 64-bit integer keys.
//
// The table supports insertion, resizing, persistence, and exhaustive
// nearest-neighbor lookup by cosine similarity. It underlies a larger
// natural-language toolkit but is self-contained: it knows nothing about
// language, tokens, or models, only about rows of floats and the keys that
// reference them. It does not train or update vectors; it stores, looks up,
// and retrieves vectors supplied by the caller.
//
// # Quick start
//
//	table := vectable.New(1000, 300)
//
//	row, err := table.Add(key, vectable.AddVector(vec))
//	if err != nil {
//	    // table full: grow it via Resize
//	}
//
//	result, err := table.MostSimilar(context.Background(), queries,
//	    vectable.WithN(10),
//	    vectable.WithBatchSize(512),
//	)
//
// Persist and restore through any blobstore.Store (local directory, memory,
// S3, MinIO):
//
//	err = table.ToDisk("./vectors")
//	table, err = vectable.FromDisk("./vectors")
//
// # Concurrency
//
// A Table is a single mutable resource with no internal locking: callers
// needing concurrent access must serialize it externally or give each worker
// a private copy. The Registry and the blob stores are safe for concurrent
// use.
package vectable
