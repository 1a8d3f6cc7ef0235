package availabilitystore

import "context"

// requestCandidateEvents fetches the candidates included at blockHash
// and returns their hashes as a set, ready for applyBlockActivated. A
// runtime-API failure is low-signal (spec.md §7): the block is simply
// treated as if it included nothing, and the caller logs and moves on.
func requestCandidateEvents(ctx context.Context, client RuntimeAPIClient, blockHash Hash) (map[CandidateHash]struct{}, error) {
	events, err := client.CandidateEvents(ctx, blockHash)
	if err != nil {
		return nil, wrap(KindRuntimeAPI, err, "request candidate events")
	}
	included := make(map[CandidateHash]struct{}, len(events))
	for _, ev := range events {
		included[ev.CandidateHash] = struct{}{}
	}
	return included, nil
}

// getBlockNumber resolves a block hash to its number via the chain-API
// client. Per spec.md §4.7, a lookup failure is logged and degrades to
// 0 rather than failing the request. Its only caller is the StoreChunk
// path, which then records the chunk at block number 1, so the next
// finalization signal moves that chunk to Finalized.
func getBlockNumber(ctx context.Context, client ChainAPIClient, blockHash Hash) uint64 {
	number, err := client.BlockNumber(ctx, blockHash)
	if err != nil {
		log.WithError(err).WithField("block_hash", blockHash).Warn("Failed to resolve block number, defaulting to 0")
		return 0
	}
	return number
}
