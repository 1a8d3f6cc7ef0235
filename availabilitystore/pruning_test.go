package availabilitystore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func hashOf(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func TestPruningDelayOrdering(t *testing.T) {
	now := time.Now()
	earlier := At(now)
	later := At(now.Add(time.Hour))

	require.True(t, earlier.Less(later))
	require.False(t, later.Less(earlier))
	require.True(t, earlier.Less(Indefinite()))
	require.False(t, Indefinite().Less(earlier))
	require.False(t, Indefinite().Less(Indefinite()))
}

func TestPruningDelayDue(t *testing.T) {
	now := time.Now()
	require.True(t, At(now).Due(now))
	require.True(t, At(now.Add(-time.Second)).Due(now))
	require.False(t, At(now.Add(time.Second)).Due(now))
	require.False(t, Indefinite().Due(now))
}

func TestPoVQueueInsertUpsertsByIdentity(t *testing.T) {
	q := newPoVPruningQueue(nil)
	hash := hashOf(1)
	now := time.Now()

	q.Insert(PoVPruningRecord{CandidateHash: hash, BlockNumber: 1, State: StateStored, PruneAt: At(now)})
	require.Len(t, q.records, 1)

	// Re-inserting the same identity replaces, rather than appends.
	q.Insert(PoVPruningRecord{CandidateHash: hash, BlockNumber: 1, State: StateIncluded, PruneAt: Indefinite()})
	require.Len(t, q.records, 1)
	require.Equal(t, StateIncluded, q.records[0].State)
	require.True(t, q.records[0].PruneAt.IsIndefinite())
}

func TestPoVQueuePopDueOrdersByDeadline(t *testing.T) {
	q := newPoVPruningQueue(nil)
	now := time.Now()
	q.Insert(PoVPruningRecord{CandidateHash: hashOf(1), PruneAt: At(now.Add(2 * time.Second))})
	q.Insert(PoVPruningRecord{CandidateHash: hashOf(2), PruneAt: At(now.Add(-time.Second))})
	q.Insert(PoVPruningRecord{CandidateHash: hashOf(3), PruneAt: Indefinite()})

	due := q.PopDue(now)
	require.Len(t, due, 1)
	require.Equal(t, hashOf(2), due[0].CandidateHash)
	require.Len(t, q.records, 2)

	wake, ok := q.NextWakeup()
	require.True(t, ok)
	require.True(t, wake.Equal(now.Add(2 * time.Second)))
}

func TestChunkQueueNextWakeupIndefiniteHead(t *testing.T) {
	q := newChunkPruningQueue(nil)
	q.Insert(ChunkPruningRecord{CandidateHash: hashOf(1), ChunkIndex: 0, PruneAt: Indefinite()})
	_, ok := q.NextWakeup()
	require.False(t, ok)
}

func TestChunkQueueIdentityIncludesIndex(t *testing.T) {
	q := newChunkPruningQueue(nil)
	hash := hashOf(1)
	q.Insert(ChunkPruningRecord{CandidateHash: hash, ChunkIndex: 0, PruneAt: At(time.Now())})
	q.Insert(ChunkPruningRecord{CandidateHash: hash, ChunkIndex: 1, PruneAt: At(time.Now())})
	require.Len(t, q.records, 2)
}
