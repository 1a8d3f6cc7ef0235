package availabilitystore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyBlockActivatedFreezesIncludedRecords(t *testing.T) {
	povQ := newPoVPruningQueue(nil)
	chunkQ := newChunkPruningQueue(nil)
	now := time.Now()
	hash := hashOf(1)

	povQ.Insert(PoVPruningRecord{CandidateHash: hash, BlockNumber: 10, State: StateStored, PruneAt: At(now.Add(time.Minute))})
	chunkQ.Insert(ChunkPruningRecord{CandidateHash: hash, ChunkIndex: 0, BlockNumber: 10, State: StateStored, PruneAt: At(now.Add(time.Minute))})

	applyBlockActivated(povQ, chunkQ, map[CandidateHash]struct{}{hash: {}})

	require.Equal(t, StateIncluded, povQ.records[0].State)
	require.True(t, povQ.records[0].PruneAt.IsIndefinite())
	require.Equal(t, StateIncluded, chunkQ.records[0].State)
	require.True(t, chunkQ.records[0].PruneAt.IsIndefinite())
}

func TestApplyBlockActivatedIgnoresUnrelatedRecords(t *testing.T) {
	povQ := newPoVPruningQueue(nil)
	chunkQ := newChunkPruningQueue(nil)
	now := time.Now()
	hash := hashOf(1)
	other := hashOf(2)

	povQ.Insert(PoVPruningRecord{CandidateHash: hash, State: StateStored, PruneAt: At(now.Add(time.Minute))})

	applyBlockActivated(povQ, chunkQ, map[CandidateHash]struct{}{other: {}})

	require.Equal(t, StateStored, povQ.records[0].State)
	require.False(t, povQ.records[0].PruneAt.IsIndefinite())
}

func TestApplyBlockFinalizedRearmsDeadline(t *testing.T) {
	povQ := newPoVPruningQueue(nil)
	chunkQ := newChunkPruningQueue(nil)
	hash := hashOf(1)
	now := time.Now()

	povQ.Insert(PoVPruningRecord{CandidateHash: hash, BlockNumber: 10, State: StateIncluded, PruneAt: Indefinite()})
	chunkQ.Insert(ChunkPruningRecord{CandidateHash: hash, ChunkIndex: 0, BlockNumber: 10, State: StateIncluded, PruneAt: Indefinite()})

	cfg := DefaultPruningConfig()
	applyBlockFinalized(povQ, chunkQ, 10, now, cfg)

	require.Equal(t, StateFinalized, povQ.records[0].State)
	wake, ok := povQ.records[0].PruneAt.Time()
	require.True(t, ok)
	require.True(t, wake.Equal(now.Add(cfg.KeepFinalizedBlockFor)))

	require.Equal(t, StateFinalized, chunkQ.records[0].State)
	chunkWake, ok := chunkQ.records[0].PruneAt.Time()
	require.True(t, ok)
	require.True(t, chunkWake.Equal(now.Add(cfg.KeepFinalizedChunkFor)))
}

func TestApplyBlockFinalizedSkipsLaterCandidates(t *testing.T) {
	povQ := newPoVPruningQueue(nil)
	chunkQ := newChunkPruningQueue(nil)
	hash := hashOf(1)
	now := time.Now()

	povQ.Insert(PoVPruningRecord{CandidateHash: hash, BlockNumber: 100, State: StateIncluded, PruneAt: Indefinite()})

	applyBlockFinalized(povQ, chunkQ, 10, now, DefaultPruningConfig())

	require.Equal(t, StateIncluded, povQ.records[0].State)
	require.True(t, povQ.records[0].PruneAt.IsIndefinite())
}
