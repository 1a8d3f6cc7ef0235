package availabilitystore

// AvailableData is the opaque Proof-of-Validity-plus-validation-data
// blob produced by candidate validation. This subsystem does not
// interpret its contents beyond the block number it was built against.
type AvailableData struct {
	// Bytes is the opaque validation payload (PoV plus validation data).
	Bytes []byte
	// BlockNumber is the candidate's own block number (relay parent's
	// block number + 1, per spec.md's glossary).
	BlockNumber uint64
}

// StoredAvailableData is the on-disk record for a full artifact, keyed
// by candidate hash under column DATA.
type StoredAvailableData struct {
	Data        []byte
	BlockNumber uint64
	NValidators uint32
}

// ErasureChunk is one of NValidators erasure-coded pieces of an
// AvailableData blob, keyed by (candidate hash, Index) under column
// DATA.
type ErasureChunk struct {
	Bytes       []byte
	MerkleProof []byte
	Index       uint32
}

// CandidateHash identifies a candidate by its hash. It is an alias for
// [32]byte, so it is interchangeable with the fixed-width form the
// records and the codec use.
type CandidateHash = [32]byte
