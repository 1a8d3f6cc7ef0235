package availabilitystore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Column names the two logical columns this subsystem keeps in the KV
// store: artifact bytes, and pruning/lifetime metadata.
type Column string

const (
	// ColumnData holds full AvailableData blobs and erasure chunks.
	ColumnData Column = "data"
	// ColumnMeta holds the pruning queues and their cached wakeups.
	ColumnMeta Column = "meta"
)

// Database is the typed KV adapter this subsystem depends on: a
// get/put interface over a two-column store with atomic batched
// writes. Out of scope per spec.md: the KV engine itself is an
// external collaborator; this interface is the seam.
type Database interface {
	// Get returns the raw bytes stored at (col, key), or (nil, false)
	// if absent. Decode errors are the caller's concern; a missing key
	// is not itself an error.
	Get(col Column, key []byte) ([]byte, bool, error)
	// Write commits every Put/Delete accumulated in batch atomically.
	Write(batch *Batch) error
	// Close releases the underlying store.
	Close() error
}

// Batch accumulates puts and deletes for one logical operation so it
// can be committed atomically, preserving the "every write path
// funnels into a single batch" invariant (spec.md invariant 6).
type Batch struct {
	puts    []batchPut
	deletes []batchDelete
}

type batchPut struct {
	col   Column
	key   []byte
	value []byte
}

type batchDelete struct {
	col Column
	key []byte
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put stages a write; it has no effect until the batch is committed.
func (b *Batch) Put(col Column, key, value []byte) {
	b.puts = append(b.puts, batchPut{col: col, key: key, value: value})
}

// Delete stages a deletion; it has no effect until the batch is committed.
func (b *Batch) Delete(col Column, key []byte) {
	b.deletes = append(b.deletes, batchDelete{col: col, key: key})
}

// boltDatabase is the bbolt-backed Database implementation. Bucket
// names stand in for the two logical columns. Grounded on the teacher
// lineage's beacon-chain/db/kv and beacon-chain/db/slasherkv packages,
// which wrap bbolt the same way: one *bolt.DB, Update/View helpers, a
// fixed set of top-level buckets created at open time.
type boltDatabase struct {
	db *bolt.DB
}

var columnBuckets = [][]byte{[]byte(ColumnData), []byte(ColumnMeta)}

// OpenBoltDatabase opens (creating if absent) a bbolt database at path,
// with the DATA and META buckets present. The path is conventionally a
// dedicated subdirectory distinct from any host node's own database
// columns (spec.md §6). cacheSize is an optional budget in bytes for
// bbolt's InitialMmapSize, the closest knob an mmap-backed store has to
// a page-cache budget: pre-sizing the mapping avoids the remap-and-
// copy bbolt otherwise pays as the file grows past a default-sized
// mapping. A zero cacheSize leaves bbolt's own default in place.
func OpenBoltDatabase(path string, cacheSize uint64) (Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, wrap(KindUnsupportedDatabase, err, "create availability store directory")
	}
	opts := &bolt.Options{Timeout: 5 * time.Second}
	if cacheSize > 0 {
		opts.InitialMmapSize = int(cacheSize)
	}
	db, err := bolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, wrap(KindUnsupportedDatabase, err, "open availability store database")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range columnBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, wrap(KindUnsupportedDatabase, err, "create availability store buckets")
	}
	return &boltDatabase{db: db}, nil
}

func (d *boltDatabase) Get(col Column, key []byte) ([]byte, bool, error) {
	var value []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(col))
		if bkt == nil {
			return errors.Errorf("unknown column %q", col)
		}
		v := bkt.Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, wrap(KindIO, err, "read from availability store")
	}
	return value, value != nil, nil
}

func (d *boltDatabase) Write(batch *Batch) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		for _, p := range batch.puts {
			bkt := tx.Bucket([]byte(p.col))
			if bkt == nil {
				return errors.Errorf("unknown column %q", p.col)
			}
			if err := bkt.Put(p.key, p.value); err != nil {
				return err
			}
		}
		for _, d := range batch.deletes {
			bkt := tx.Bucket([]byte(d.col))
			if bkt == nil {
				return errors.Errorf("unknown column %q", d.col)
			}
			if err := bkt.Delete(d.key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrap(KindIO, err, "commit availability store batch")
	}
	return nil
}

func (d *boltDatabase) Close() error {
	if err := d.db.Close(); err != nil {
		return wrap(KindIO, err, "close availability store database")
	}
	return nil
}

// getTyped reads (col, key) and decodes it with decode. A decode
// failure is treated as corruption: it is logged and reported as
// "not found", never propagated (spec.md §4.1, §7).
func getTyped[T any](db Database, col Column, key []byte, decode func([]byte) (T, error)) (T, bool) {
	var zero T
	raw, ok, err := db.Get(col, key)
	if err != nil {
		log.WithError(err).WithField("column", col).Warn("Failed to read from availability store")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	value, err := decode(raw)
	if err != nil {
		log.WithError(err).WithField("column", col).Error("Corrupt record in availability store, treating as absent")
		return zero, false
	}
	return value, true
}
