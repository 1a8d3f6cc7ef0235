package availabilitystore

import (
	"time"
)

// loadPoVPruningQueue reads the PoV pruning vector from column META and
// returns it as a sorted in-memory queue. Absence decodes to an empty
// queue, matching the Rust original's unwrap_or_default.
func loadPoVPruningQueue(db Database) *povPruningQueue {
	records, _ := getTyped(db, ColumnMeta, povPruningKey, decodePoVPruningRecords)
	return newPoVPruningQueue(records)
}

func loadChunkPruningQueue(db Database) *chunkPruningQueue {
	records, _ := getTyped(db, ColumnMeta, chunkPruningKey, decodeChunkPruningRecords)
	return newChunkPruningQueue(records)
}

// stagePoVPruningWrite stages the re-encoded queue and its cached
// next-wakeup key into batch, implementing invariant 3: the cache is
// present iff the head is a concrete deadline, and deleted otherwise.
// It never calls db.Write itself — callers fold it into their own
// single atomic batch for the logical operation.
func stagePoVPruningWrite(batch *Batch, q *povPruningQueue) {
	batch.Put(ColumnMeta, povPruningKey, encodePoVPruningRecords(q.records))
	if wake, ok := q.NextWakeup(); ok {
		batch.Put(ColumnMeta, nextPoVPruningKey, encodeNextWakeup(wake))
	} else {
		batch.Delete(ColumnMeta, nextPoVPruningKey)
	}
}

func stageChunkPruningWrite(batch *Batch, q *chunkPruningQueue) {
	batch.Put(ColumnMeta, chunkPruningKey, encodeChunkPruningRecords(q.records))
	if wake, ok := q.NextWakeup(); ok {
		batch.Put(ColumnMeta, nextChunkPruningKey, encodeNextWakeup(wake))
	} else {
		batch.Delete(ColumnMeta, nextChunkPruningKey)
	}
}

// putPoVPruningQueue stages and commits the PoV queue in its own batch,
// for call sites that don't already have a batch open for a larger
// logical operation. The queue is written in its current order.
func putPoVPruningQueue(db Database, q *povPruningQueue) error {
	batch := NewBatch()
	stagePoVPruningWrite(batch, q)
	return db.Write(batch)
}

func putChunkPruningQueue(db Database, q *chunkPruningQueue) error {
	batch := NewBatch()
	stageChunkPruningWrite(batch, q)
	return db.Write(batch)
}

// nextPoVPruningWakeup returns the cached next-wakeup instant for the
// PoV queue, if any.
func nextPoVPruningWakeup(db Database) (time.Time, bool) {
	return getTyped(db, ColumnMeta, nextPoVPruningKey, decodeNextWakeup)
}

func nextChunkPruningWakeup(db Database) (time.Time, bool) {
	return getTyped(db, ColumnMeta, nextChunkPruningKey, decodeNextWakeup)
}
