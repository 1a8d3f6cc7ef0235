package availabilitystore

import (
	"sort"
	"time"
)

// CandidateState is the lifetime state of a stored artifact.
type CandidateState uint8

const (
	// StateStored is the initial state on write.
	StateStored CandidateState = iota
	// StateIncluded marks a candidate the chain has recorded as included.
	StateIncluded
	// StateFinalized marks a candidate whose including block is finalized.
	StateFinalized
)

func (s CandidateState) String() string {
	switch s {
	case StateStored:
		return "stored"
	case StateIncluded:
		return "included"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// PruningDelay is either a concrete deadline or Indefinite. Every At(_)
// compares less than Indefinite; Indefinite equals only itself. Do not
// encode Indefinite as a sentinel timestamp — the ordering is
// structural, not numeric.
type PruningDelay struct {
	indefinite bool
	at         time.Time
}

// At builds a PruningDelay that fires at the given instant.
func At(t time.Time) PruningDelay {
	return PruningDelay{at: t}
}

// Indefinite builds a PruningDelay that never fires.
func Indefinite() PruningDelay {
	return PruningDelay{indefinite: true}
}

// IsIndefinite reports whether the delay never fires.
func (d PruningDelay) IsIndefinite() bool {
	return d.indefinite
}

// Time returns the deadline and true, or the zero time and false if
// the delay is Indefinite.
func (d PruningDelay) Time() (time.Time, bool) {
	if d.indefinite {
		return time.Time{}, false
	}
	return d.at, true
}

// Due reports whether this delay should fire at or before now. An
// Indefinite delay is never due.
func (d PruningDelay) Due(now time.Time) bool {
	if d.indefinite {
		return false
	}
	return !d.at.After(now)
}

// Less implements the total ordering from spec.md §3: all At(t) values
// compare by t; every At(_) is strictly less than Indefinite;
// Indefinite == Indefinite.
func (d PruningDelay) Less(other PruningDelay) bool {
	switch {
	case !d.indefinite && !other.indefinite:
		return d.at.Before(other.at)
	case !d.indefinite && other.indefinite:
		return true
	default:
		return false
	}
}

// PoVPruningRecord tracks the lifetime of one stored AvailableData blob.
// Identity is candidateHash.
type PoVPruningRecord struct {
	CandidateHash [32]byte
	BlockNumber   uint64
	State         CandidateState
	PruneAt       PruningDelay
}

// ChunkPruningRecord tracks the lifetime of one stored erasure chunk.
// Identity is (candidateHash, ChunkIndex).
type ChunkPruningRecord struct {
	CandidateHash [32]byte
	BlockNumber   uint64
	State         CandidateState
	ChunkIndex    uint32
	PruneAt       PruningDelay
}

// povIdentity and chunkIdentity let callers compare records by
// identity without depending on field order, per the "identity vs
// ordering" design note in spec.md §9: ordering is by deadline, but
// equality for upsert purposes is by identity alone.
func povIdentity(r PoVPruningRecord) [32]byte { return r.CandidateHash }

type chunkIdentity struct {
	candidateHash [32]byte
	chunkIndex    uint32
}

func chunkIdentityOf(r ChunkPruningRecord) chunkIdentity {
	return chunkIdentity{candidateHash: r.CandidateHash, chunkIndex: r.ChunkIndex}
}

// povPruningQueue is the in-memory, re-sortable view of the PoV pruning
// records. The physical representation on disk is a single encoded
// vector (spec.md §4.3); this type is the pure in-memory algebra over
// it, with no knowledge of the KV store.
type povPruningQueue struct {
	records []PoVPruningRecord
}

func newPoVPruningQueue(records []PoVPruningRecord) *povPruningQueue {
	q := &povPruningQueue{records: records}
	q.sort()
	return q
}

func (q *povPruningQueue) sort() {
	sort.SliceStable(q.records, func(i, j int) bool {
		return q.records[i].PruneAt.Less(q.records[j].PruneAt)
	})
}

// Insert upserts by identity: a record with the same candidate hash
// replaces the existing one rather than being appended alongside it,
// closing the duplicate-insert hazard spec.md §9 calls out.
func (q *povPruningQueue) Insert(record PoVPruningRecord) {
	id := povIdentity(record)
	for i := range q.records {
		if povIdentity(q.records[i]) == id {
			q.records[i] = record
			q.sort()
			return
		}
	}
	q.records = append(q.records, record)
	q.sort()
}

// UpdateMatching applies patch to every record satisfying predicate,
// then re-sorts. Caller is responsible for persisting afterward.
func (q *povPruningQueue) UpdateMatching(predicate func(PoVPruningRecord) bool, patch func(*PoVPruningRecord)) {
	for i := range q.records {
		if predicate(q.records[i]) {
			patch(&q.records[i])
		}
	}
	q.sort()
}

// PopDue removes and returns the prefix of records due at or before
// now. Indefinite records never qualify and the scan stops at the
// first one that isn't due, since the queue is sorted ascending.
func (q *povPruningQueue) PopDue(now time.Time) []PoVPruningRecord {
	n := 0
	for n < len(q.records) && q.records[n].PruneAt.Due(now) {
		n++
	}
	due := q.records[:n]
	q.records = q.records[n:]
	return due
}

// NextWakeup returns the head's deadline if it is a concrete At(_), and
// false if the queue is empty or headed by an Indefinite record.
func (q *povPruningQueue) NextWakeup() (time.Time, bool) {
	if len(q.records) == 0 {
		return time.Time{}, false
	}
	return q.records[0].PruneAt.Time()
}

// chunkPruningQueue mirrors povPruningQueue for ChunkPruningRecord.
type chunkPruningQueue struct {
	records []ChunkPruningRecord
}

func newChunkPruningQueue(records []ChunkPruningRecord) *chunkPruningQueue {
	q := &chunkPruningQueue{records: records}
	q.sort()
	return q
}

func (q *chunkPruningQueue) sort() {
	sort.SliceStable(q.records, func(i, j int) bool {
		return q.records[i].PruneAt.Less(q.records[j].PruneAt)
	})
}

func (q *chunkPruningQueue) Insert(record ChunkPruningRecord) {
	id := chunkIdentityOf(record)
	for i := range q.records {
		if chunkIdentityOf(q.records[i]) == id {
			q.records[i] = record
			q.sort()
			return
		}
	}
	q.records = append(q.records, record)
	q.sort()
}

func (q *chunkPruningQueue) UpdateMatching(predicate func(ChunkPruningRecord) bool, patch func(*ChunkPruningRecord)) {
	for i := range q.records {
		if predicate(q.records[i]) {
			patch(&q.records[i])
		}
	}
	q.sort()
}

func (q *chunkPruningQueue) PopDue(now time.Time) []ChunkPruningRecord {
	n := 0
	for n < len(q.records) && q.records[n].PruneAt.Due(now) {
		n++
	}
	due := q.records[:n]
	q.records = q.records[n:]
	return due
}

func (q *chunkPruningQueue) NextWakeup() (time.Time, bool) {
	if len(q.records) == 0 {
		return time.Time{}, false
	}
	return q.records[0].PruneAt.Time()
}
