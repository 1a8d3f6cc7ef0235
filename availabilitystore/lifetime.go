package availabilitystore

import "time"

// applyBlockActivated implements the original subsystem's
// process_block_activated: for every queued record whose candidate is
// among the newly included set, the record is frozen in place by
// moving it to State Included with an Indefinite deadline (spec.md
// §4.4). Included candidates are retained until finalization decides
// their fate, however far off that finalization turns out to be.
func applyBlockActivated(povQueue *povPruningQueue, chunkQueue *chunkPruningQueue, included map[CandidateHash]struct{}) {
	if len(included) == 0 {
		return
	}
	isIncluded := func(h CandidateHash) bool {
		_, ok := included[h]
		return ok
	}
	povQueue.UpdateMatching(
		func(r PoVPruningRecord) bool { return isIncluded(r.CandidateHash) },
		func(r *PoVPruningRecord) {
			r.State = StateIncluded
			r.PruneAt = Indefinite()
		},
	)
	chunkQueue.UpdateMatching(
		func(r ChunkPruningRecord) bool { return isIncluded(r.CandidateHash) },
		func(r *ChunkPruningRecord) {
			r.State = StateIncluded
			r.PruneAt = Indefinite()
		},
	)
}

// applyBlockFinalized implements process_block_finalized: every record
// whose candidate was built at or before the newly finalized height
// moves to State Finalized and gets a concrete deadline measured from
// now, re-arming whatever Indefinite deadline inclusion had set
// (spec.md §4.4). Records for candidates beyond the finalized height
// (still pending inclusion of a later ancestor) are left untouched.
func applyBlockFinalized(povQueue *povPruningQueue, chunkQueue *chunkPruningQueue, finalizedBlockNumber uint64, now time.Time, cfg PruningConfig) {
	povQueue.UpdateMatching(
		func(r PoVPruningRecord) bool { return r.BlockNumber <= finalizedBlockNumber },
		func(r *PoVPruningRecord) {
			r.State = StateFinalized
			r.PruneAt = At(now.Add(cfg.KeepFinalizedBlockFor))
		},
	)
	chunkQueue.UpdateMatching(
		func(r ChunkPruningRecord) bool { return r.BlockNumber <= finalizedBlockNumber },
		func(r *ChunkPruningRecord) {
			r.State = StateFinalized
			r.PruneAt = At(now.Add(cfg.KeepFinalizedChunkFor))
		},
	)
}
