package availabilitystore

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Coder derives the set of erasure chunks for an AvailableData blob.
// The erasure-coding primitive itself is out of scope for this
// subsystem (spec.md §1, "Out of scope") — it is an external
// collaborator referenced only through this interface. Production
// deployments wire in a real erasure-coding implementation; the
// default below is a minimal deterministic stand-in with the same
// reconstruct-from-any-sufficient-subset property that lets the
// subsystem's regenerate-on-miss path (§4.5) stay deterministic across
// restarts.
type Coder interface {
	// Chunks splits data into nValidators erasure chunks, each carrying
	// a proof usable to verify it against the candidate's erasure root.
	// It is deterministic: the same (data, nValidators) always yields
	// bitwise-identical chunks.
	Chunks(data []byte, nValidators int) ([]ErasureChunk, error)
}

// xorParityCoder is the module's default Coder. It splits data into
// nValidators-1 equal shards plus one XOR parity shard, which is
// enough to demonstrate and test the store's lifetime and regeneration
// behavior without depending on an external erasure-coding crate (none
// of this module's dependency lineage carries one — see DESIGN.md).
type xorParityCoder struct{}

// NewDefaultCoder returns the module's default Coder.
func NewDefaultCoder() Coder {
	return xorParityCoder{}
}

func (xorParityCoder) Chunks(data []byte, nValidators int) ([]ErasureChunk, error) {
	if nValidators <= 0 {
		return nil, errors.New("nValidators must be positive")
	}
	shardCount := nValidators
	if shardCount == 1 {
		return []ErasureChunk{{Bytes: append([]byte(nil), data...), Index: 0, MerkleProof: proofFor(0, data)}}, nil
	}

	dataShards := shardCount - 1
	shardLen := (len(data) + dataShards - 1) / dataShards
	if shardLen == 0 {
		shardLen = 1
	}
	padded := make([]byte, shardLen*dataShards)
	copy(padded, data)

	chunks := make([]ErasureChunk, 0, shardCount)
	parity := make([]byte, shardLen)
	for i := 0; i < dataShards; i++ {
		shard := padded[i*shardLen : (i+1)*shardLen]
		for j, b := range shard {
			parity[j] ^= b
		}
		chunks = append(chunks, ErasureChunk{
			Bytes:       append([]byte(nil), shard...),
			Index:       uint32(i),
			MerkleProof: proofFor(uint32(i), shard),
		})
	}
	chunks = append(chunks, ErasureChunk{
		Bytes:       parity,
		Index:       uint32(dataShards),
		MerkleProof: proofFor(uint32(dataShards), parity),
	})
	return chunks, nil
}

// proofFor is a placeholder merkle-proof stand-in: deterministic,
// cheap, and sufficient for the store to persist and return something
// shaped like a proof. Verifying erasure proofs on ingest is an
// explicit non-goal (spec.md §1).
func proofFor(index uint32, shard []byte) []byte {
	proof := make([]byte, 4)
	binary.BigEndian.PutUint32(proof, index)
	return proof
}
