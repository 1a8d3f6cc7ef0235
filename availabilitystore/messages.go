package availabilitystore

import "context"

// Hash identifies a block or candidate.
type Hash = [32]byte

// Signal is one of the chain-driven control signals the overseer/bus
// delivers, distinct from peer-subsystem Messages (spec.md §6).
type Signal interface{ isSignal() }

// ConcludeSignal asks the control loop to exit cleanly.
type ConcludeSignal struct{}

func (ConcludeSignal) isSignal() {}

// ActiveLeavesSignal reports newly activated chain heads.
type ActiveLeavesSignal struct {
	Activated []Hash
}

func (ActiveLeavesSignal) isSignal() {}

// BlockFinalizedSignal reports a new finalized height.
type BlockFinalizedSignal struct {
	BlockHash   Hash
	BlockNumber uint64
}

func (BlockFinalizedSignal) isSignal() {}

// Message is one of the inbound request variants from peer subsystems
// (spec.md §6). Each carries its own reply channel.
type Message interface{ isMessage() }

// QueryAvailableData looks up the full AvailableData for a candidate.
type QueryAvailableData struct {
	CandidateHash Hash
	Reply         chan<- *AvailableData
}

func (QueryAvailableData) isMessage() {}

// QueryDataAvailability checks whether full data exists for a candidate.
type QueryDataAvailability struct {
	CandidateHash Hash
	Reply         chan<- bool
}

func (QueryDataAvailability) isMessage() {}

// QueryChunk looks up one erasure chunk, regenerating from full data on
// a miss (spec.md §4.5).
type QueryChunk struct {
	CandidateHash Hash
	Index         uint32
	Reply         chan<- *ErasureChunk
}

func (QueryChunk) isMessage() {}

// QueryChunkAvailability checks chunk existence without returning it.
type QueryChunkAvailability struct {
	CandidateHash Hash
	Index         uint32
	Reply         chan<- bool
}

func (QueryChunkAvailability) isMessage() {}

// StoreChunkMessage asks the store to persist one erasure chunk. The
// candidate's block number is derived from the relay parent's block
// number, fetched via the chain-API helper.
type StoreChunkMessage struct {
	CandidateHash  Hash
	RelayParent    Hash
	ValidatorIndex uint32
	Chunk          ErasureChunk
	Reply          chan<- error
}

func (StoreChunkMessage) isMessage() {}

// StoreAvailableDataMessage asks the store to persist full data, and
// optionally the submitter's own chunk if ValidatorIndex is non-nil.
type StoreAvailableDataMessage struct {
	CandidateHash  Hash
	ValidatorIndex *uint32
	NValidators    uint32
	Data           AvailableData
	Reply          chan<- error
}

func (StoreAvailableDataMessage) isMessage() {}

// Event is what the Bus hands the control loop on each receive: either
// a Signal or a Message, never both.
type Event struct {
	Signal  Signal
	Message Message
}

// Bus is the narrow message/signal feed this subsystem depends on,
// modeled on the teacher lineage's shared/event.Feed subscription idiom
// and the pack's oasis-core committee-node worker loop (a single
// channel multiplexing every inbound class). Out of scope per spec.md:
// the bus itself is an external collaborator.
type Bus interface {
	// Receive blocks until the next Event or ctx is canceled.
	Receive(ctx context.Context) (Event, error)
}

// CandidateEvent is the subset of runtime candidate events this
// subsystem consumes: only CandidateIncluded matters here (spec.md
// §4.4); other event kinds are not represented.
type CandidateEvent struct {
	CandidateHash Hash
}

// RuntimeAPIClient issues runtime-API requests. Out of scope per
// spec.md: referenced only by interface.
type RuntimeAPIClient interface {
	// CandidateEvents returns the CandidateIncluded events observed at
	// the block with the given hash.
	CandidateEvents(ctx context.Context, blockHash Hash) ([]CandidateEvent, error)
}

// ChainAPIClient issues chain-API requests. Out of scope per spec.md:
// referenced only by interface.
type ChainAPIClient interface {
	// BlockNumber returns the block number for hash, or an error if
	// unknown.
	BlockNumber(ctx context.Context, blockHash Hash) (uint64, error)
}
