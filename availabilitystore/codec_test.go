package availabilitystore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDataKeyAndChunkKeyNeverCollide(t *testing.T) {
	hash := hashOf(7)
	dk := dataKey(hash)
	for i := uint32(0); i < 8; i++ {
		ck := chunkKey(hash, i)
		require.NotEqual(t, dk, ck)
	}
}

func TestStoredAvailableDataRoundTrip(t *testing.T) {
	want := StoredAvailableData{Data: []byte("pov bytes"), BlockNumber: 42, NValidators: 5}
	got, err := decodeStoredAvailableData(encodeStoredAvailableData(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestErasureChunkRoundTrip(t *testing.T) {
	want := ErasureChunk{Bytes: []byte("shard"), MerkleProof: []byte("proof"), Index: 3}
	got, err := decodeErasureChunk(encodeErasureChunk(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestNextWakeupRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Nanosecond)

	got, err := decodeNextWakeup(encodeNextWakeup(now))
	require.NoError(t, err)
	require.True(t, now.Equal(got))
}

func TestPoVPruningRecordsRoundTrip(t *testing.T) {
	want := []PoVPruningRecord{
		{CandidateHash: hashOf(1), BlockNumber: 1, State: StateStored, PruneAt: At(time.Now().UTC())},
		{CandidateHash: hashOf(2), BlockNumber: 2, State: StateIncluded, PruneAt: Indefinite()},
	}
	got, err := decodePoVPruningRecords(encodePoVPruningRecords(want))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, want[0].CandidateHash, got[0].CandidateHash)
	require.Equal(t, want[1].State, got[1].State)
	require.True(t, got[1].PruneAt.IsIndefinite())
}

func TestChunkPruningRecordsRoundTrip(t *testing.T) {
	want := []ChunkPruningRecord{
		{CandidateHash: hashOf(1), BlockNumber: 1, ChunkIndex: 0, State: StateStored, PruneAt: At(time.Now().UTC())},
	}
	got, err := decodeChunkPruningRecords(encodeChunkPruningRecords(want))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want[0].ChunkIndex, got[0].ChunkIndex)
}
