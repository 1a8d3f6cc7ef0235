package availabilitystore

import "time"

// Store bundles the KV adapter with the in-memory pruning queues, the
// erasure Coder, and the clock: everything the storage operations in
// spec.md §4.5 need, independent of the control loop that drives them.
// Grounded on the teacher lineage's beacon-chain/db/filesystem package,
// where a *BlobStorage struct plays the same role around its own
// pruner.
type Store struct {
	db      Database
	cfg     PruningConfig
	coder   Coder
	clock   Clock
	metrics *metrics

	povQueue   *povPruningQueue
	chunkQueue *chunkPruningQueue
}

// NewStore opens db's existing pruning queues into memory and returns a
// ready Store.
func NewStore(db Database, cfg PruningConfig, coder Coder, clock Clock, m *metrics) *Store {
	return &Store{
		db:         db,
		cfg:        cfg,
		coder:      coder,
		clock:      clock,
		metrics:    m,
		povQueue:   loadPoVPruningQueue(db),
		chunkQueue: loadChunkPruningQueue(db),
	}
}

// findPoVState returns the current lifetime state of an already-known
// PoV record, so a re-store never regresses a candidate that has
// already been included or finalized back to Stored (idempotency, per
// spec.md §4.4's "every operation ... is idempotent").
func (s *Store) findPoVState(hash CandidateHash) (CandidateState, PruningDelay, bool) {
	for _, r := range s.povQueue.records {
		if r.CandidateHash == hash {
			return r.State, r.PruneAt, true
		}
	}
	return 0, PruningDelay{}, false
}

func (s *Store) findChunkState(hash CandidateHash, index uint32) (CandidateState, PruningDelay, bool) {
	for _, r := range s.chunkQueue.records {
		if r.CandidateHash == hash && r.ChunkIndex == index {
			return r.State, r.PruneAt, true
		}
	}
	return 0, PruningDelay{}, false
}

// StoreAvailableData persists the full AvailableData blob for a
// candidate and, if ownValidatorIndex is non-nil, the caller's own
// erasure chunk derived from it. All writes land in a single batch
// (spec.md invariant 6).
func (s *Store) StoreAvailableData(hash CandidateHash, nValidators uint32, data AvailableData, ownValidatorIndex *uint32) error {
	if s.metrics != nil {
		defer timer(s.metrics.storeAvailableData)()
	}
	now := s.clock.Now()
	batch := NewBatch()

	state, pruneAt, existed := s.findPoVState(hash)
	if !existed {
		state = StateStored
		pruneAt = At(now.Add(s.cfg.KeepStoredFor))
	}
	batch.Put(ColumnData, dataKey(hash), encodeStoredAvailableData(StoredAvailableData{
		Data:        data.Bytes,
		BlockNumber: data.BlockNumber,
		NValidators: nValidators,
	}))
	s.povQueue.Insert(PoVPruningRecord{
		CandidateHash: hash,
		BlockNumber:   data.BlockNumber,
		State:         state,
		PruneAt:       pruneAt,
	})
	stagePoVPruningWrite(batch, s.povQueue)

	if ownValidatorIndex != nil {
		chunks, err := s.coder.Chunks(data.Bytes, int(nValidators))
		if err != nil {
			return wrap(KindErasure, err, "derive erasure chunks")
		}
		index := *ownValidatorIndex
		if int(index) >= len(chunks) {
			return wrap(KindErasure, errIndexOutOfRange, "own validator index out of range")
		}
		chunk := chunks[index]
		cState, cPruneAt, cExisted := s.findChunkState(hash, index)
		if !cExisted {
			cState = StateStored
			cPruneAt = At(now.Add(s.cfg.KeepStoredFor))
		}
		batch.Put(ColumnData, chunkKey(hash, index), encodeErasureChunk(chunk))
		s.chunkQueue.Insert(ChunkPruningRecord{
			CandidateHash: hash,
			BlockNumber:   data.BlockNumber,
			State:         cState,
			ChunkIndex:    index,
			PruneAt:       cPruneAt,
		})
		stageChunkPruningWrite(batch, s.chunkQueue)
	}

	return s.db.Write(batch)
}

// stageChunks stages a Put and a chunk-queue upsert for every chunk in
// chunks, preserving each record's existing lifetime state if one is
// already tracked (the same idempotency rule StoreAvailableData
// applies). Callers still owe the batch a stageChunkPruningWrite and a
// commit.
func (s *Store) stageChunks(batch *Batch, hash CandidateHash, blockNumber uint64, chunks []ErasureChunk) {
	now := s.clock.Now()
	for _, chunk := range chunks {
		state, pruneAt, existed := s.findChunkState(hash, chunk.Index)
		if !existed {
			state = StateStored
			pruneAt = At(now.Add(s.cfg.KeepStoredFor))
		}
		batch.Put(ColumnData, chunkKey(hash, chunk.Index), encodeErasureChunk(chunk))
		s.chunkQueue.Insert(ChunkPruningRecord{
			CandidateHash: hash,
			BlockNumber:   blockNumber,
			State:         state,
			ChunkIndex:    chunk.Index,
			PruneAt:       pruneAt,
		})
	}
}

// StoreChunk persists a single erasure chunk received from a peer.
func (s *Store) StoreChunk(hash CandidateHash, blockNumber uint64, chunk ErasureChunk) error {
	if s.metrics != nil {
		defer timer(s.metrics.storeChunk)()
		s.metrics.onChunksReceived(1)
	}
	batch := NewBatch()
	s.stageChunks(batch, hash, blockNumber, []ErasureChunk{chunk})
	stageChunkPruningWrite(batch, s.chunkQueue)
	return s.db.Write(batch)
}

// GetChunk returns the chunk at index for a candidate. If the chunk
// itself was pruned or never stored but the full AvailableData blob is
// still available, it regenerates every one of the candidate's
// nValidators chunks from that blob, persists all of them in a single
// batch, and then returns the one requested — mirroring the original
// subsystem's get_chunk, which loops store_chunk over every derived
// chunk before replying (spec.md §4.5). It returns (nil, nil) if
// neither the chunk nor the full data is available.
func (s *Store) GetChunk(hash CandidateHash, index uint32) (*ErasureChunk, error) {
	if s.metrics != nil {
		defer timer(s.metrics.getChunk)()
	}
	raw, ok, err := s.db.Get(ColumnData, chunkKey(hash, index))
	if err != nil {
		return nil, wrap(KindIO, err, "read chunk")
	}
	if ok {
		chunk, err := decodeErasureChunk(raw)
		if err != nil {
			log.WithError(err).Warn("Corrupt chunk record, attempting regeneration")
		} else {
			return &chunk, nil
		}
	}

	dataRaw, ok, err := s.db.Get(ColumnData, dataKey(hash))
	if err != nil {
		return nil, wrap(KindIO, err, "read available data for regeneration")
	}
	if !ok {
		return nil, nil
	}
	stored, err := decodeStoredAvailableData(dataRaw)
	if err != nil {
		log.WithError(err).Warn("Corrupt available data record, cannot regenerate chunk")
		return nil, nil
	}
	chunks, err := s.coder.Chunks(stored.Data, int(stored.NValidators))
	if err != nil {
		return nil, wrap(KindErasure, err, "regenerate erasure chunks")
	}
	if int(index) >= len(chunks) {
		return nil, nil
	}

	batch := NewBatch()
	s.stageChunks(batch, hash, stored.BlockNumber, chunks)
	stageChunkPruningWrite(batch, s.chunkQueue)
	if err := s.db.Write(batch); err != nil {
		return nil, wrap(KindIO, err, "persist regenerated chunks")
	}

	chunk := chunks[index]
	return &chunk, nil
}

// QueryAvailableData returns the full AvailableData blob for a
// candidate, or (zero, false) if absent.
func (s *Store) QueryAvailableData(hash CandidateHash) (AvailableData, bool) {
	raw, ok, err := s.db.Get(ColumnData, dataKey(hash))
	if err != nil || !ok {
		if err != nil {
			log.WithError(err).Warn("Failed to read available data")
		}
		return AvailableData{}, false
	}
	stored, err := decodeStoredAvailableData(raw)
	if err != nil {
		log.WithError(err).Warn("Corrupt available data record, treating as absent")
		return AvailableData{}, false
	}
	return AvailableData{Bytes: stored.Data, BlockNumber: stored.BlockNumber}, true
}

// QueryDataAvailability reports whether full data is stored for hash,
// without paying the cost of decoding it.
func (s *Store) QueryDataAvailability(hash CandidateHash) bool {
	_, ok, err := s.db.Get(ColumnData, dataKey(hash))
	if err != nil {
		log.WithError(err).Warn("Failed to check data availability")
		return false
	}
	return ok
}

// QueryChunkAvailability reports whether the chunk itself is persisted,
// with no regenerate-on-miss fallback.
func (s *Store) QueryChunkAvailability(hash CandidateHash, index uint32) bool {
	_, ok, err := s.db.Get(ColumnData, chunkKey(hash, index))
	if err != nil {
		log.WithError(err).Warn("Failed to check chunk availability")
		return false
	}
	return ok
}

// runPruning pops every due record from both queues, deletes the
// matching artifact bytes, and persists the shortened queues. Returns
// the count pruned from each queue, for logging/metrics at the call
// site.
func (s *Store) runPruning(now time.Time) (povCount, chunkCount int, err error) {
	duePoV := s.povQueue.PopDue(now)
	dueChunks := s.chunkQueue.PopDue(now)
	if len(duePoV) == 0 && len(dueChunks) == 0 {
		return 0, 0, nil
	}
	batch := NewBatch()
	for _, r := range duePoV {
		batch.Delete(ColumnData, dataKey(r.CandidateHash))
		log.WithField("candidate_hash", r.CandidateHash).Trace("Pruning available data")
	}
	for _, r := range dueChunks {
		batch.Delete(ColumnData, chunkKey(r.CandidateHash, r.ChunkIndex))
		log.WithField("candidate_hash", r.CandidateHash).WithField("index", r.ChunkIndex).Trace("Pruning chunk")
	}
	stagePoVPruningWrite(batch, s.povQueue)
	stageChunkPruningWrite(batch, s.chunkQueue)
	if err := s.db.Write(batch); err != nil {
		return 0, 0, err
	}
	return len(duePoV), len(dueChunks), nil
}
