package availabilitystore

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Canonical, versionless byte encoding for keys and values. Keys use
// fixed-width fields so K_data and K_chunk never collide for any
// candidate hash / index pair (spec.md §4.2). Pruning records encode
// their fields in declaration order; StoredAvailableData and
// ErasureChunk encode their fixed-width fields first and their byte
// slices after. Only the variable-length pieces (byte slices, vectors)
// are length-prefixed.

const (
	dataTagFull  = 0
	keyDataLen   = 32 + 1      // candidateHash || tag
	keyChunkLen  = 32 + 4 + 1  // candidateHash || index || tag
)

// dataKey builds the column-DATA key for a full AvailableData blob.
func dataKey(candidateHash [32]byte) []byte {
	key := make([]byte, 0, keyDataLen)
	key = append(key, candidateHash[:]...)
	key = append(key, dataTagFull)
	return key
}

// chunkKey builds the column-DATA key for one erasure chunk.
func chunkKey(candidateHash [32]byte, index uint32) []byte {
	key := make([]byte, 0, keyChunkLen)
	key = append(key, candidateHash[:]...)
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], index)
	key = append(key, idxBuf[:]...)
	key = append(key, dataTagFull)
	return key
}

// Fixed META keys.
var (
	povPruningKey      = []byte("pov_pruning")
	chunkPruningKey    = []byte("chunks_pruning")
	nextPoVPruningKey  = []byte("next_pov_pruning")
	nextChunkPruningKey = []byte("next_chunk_pruning")
)

// --- primitive helpers ---

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func getUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func getUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func putBytes(buf *bytes.Buffer, b []byte) {
	putUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func getBytes(r *bytes.Reader) ([]byte, error) {
	n, err := getUint32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func putHash(buf *bytes.Buffer, h [32]byte) {
	buf.Write(h[:])
}

func getHash(r *bytes.Reader) ([32]byte, error) {
	var h [32]byte
	_, err := io.ReadFull(r, h[:])
	return h, err
}

// putPruningDelay encodes the tagged deadline sum type. The tag byte
// comes first so decoding never needs to guess.
func putPruningDelay(buf *bytes.Buffer, d PruningDelay) {
	if d.indefinite {
		buf.WriteByte(1)
		return
	}
	buf.WriteByte(0)
	putUint64(buf, uint64(d.at.UnixNano()))
}

func getPruningDelay(r *bytes.Reader) (PruningDelay, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return PruningDelay{}, err
	}
	if tag == 1 {
		return Indefinite(), nil
	}
	nanos, err := getUint64(r)
	if err != nil {
		return PruningDelay{}, err
	}
	return At(time.Unix(0, int64(nanos)).UTC()), nil
}

// --- StoredAvailableData ---

func encodeStoredAvailableData(d StoredAvailableData) []byte {
	var buf bytes.Buffer
	putUint64(&buf, d.BlockNumber)
	putUint32(&buf, d.NValidators)
	putBytes(&buf, d.Data)
	return buf.Bytes()
}

func decodeStoredAvailableData(raw []byte) (StoredAvailableData, error) {
	r := bytes.NewReader(raw)
	blockNumber, err := getUint64(r)
	if err != nil {
		return StoredAvailableData{}, errors.Wrap(err, "block number")
	}
	nValidators, err := getUint32(r)
	if err != nil {
		return StoredAvailableData{}, errors.Wrap(err, "n validators")
	}
	data, err := getBytes(r)
	if err != nil {
		return StoredAvailableData{}, errors.Wrap(err, "data")
	}
	return StoredAvailableData{Data: data, BlockNumber: blockNumber, NValidators: nValidators}, nil
}

// --- ErasureChunk ---

func encodeErasureChunk(c ErasureChunk) []byte {
	var buf bytes.Buffer
	putUint32(&buf, c.Index)
	putBytes(&buf, c.Bytes)
	putBytes(&buf, c.MerkleProof)
	return buf.Bytes()
}

func decodeErasureChunk(raw []byte) (ErasureChunk, error) {
	r := bytes.NewReader(raw)
	index, err := getUint32(r)
	if err != nil {
		return ErasureChunk{}, errors.Wrap(err, "index")
	}
	data, err := getBytes(r)
	if err != nil {
		return ErasureChunk{}, errors.Wrap(err, "bytes")
	}
	proof, err := getBytes(r)
	if err != nil {
		return ErasureChunk{}, errors.Wrap(err, "merkle proof")
	}
	return ErasureChunk{Index: index, Bytes: data, MerkleProof: proof}, nil
}

// --- pruning record vectors ---

func encodePoVPruningRecords(records []PoVPruningRecord) []byte {
	var buf bytes.Buffer
	putUint32(&buf, uint32(len(records)))
	for _, r := range records {
		putHash(&buf, r.CandidateHash)
		putUint64(&buf, r.BlockNumber)
		buf.WriteByte(byte(r.State))
		putPruningDelay(&buf, r.PruneAt)
	}
	return buf.Bytes()
}

func decodePoVPruningRecords(raw []byte) ([]PoVPruningRecord, error) {
	r := bytes.NewReader(raw)
	n, err := getUint32(r)
	if err != nil {
		return nil, errors.Wrap(err, "count")
	}
	records := make([]PoVPruningRecord, 0, n)
	for i := uint32(0); i < n; i++ {
		hash, err := getHash(r)
		if err != nil {
			return nil, errors.Wrap(err, "candidate hash")
		}
		blockNumber, err := getUint64(r)
		if err != nil {
			return nil, errors.Wrap(err, "block number")
		}
		stateByte, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "state")
		}
		pruneAt, err := getPruningDelay(r)
		if err != nil {
			return nil, errors.Wrap(err, "prune at")
		}
		records = append(records, PoVPruningRecord{
			CandidateHash: hash,
			BlockNumber:   blockNumber,
			State:         CandidateState(stateByte),
			PruneAt:       pruneAt,
		})
	}
	return records, nil
}

func encodeChunkPruningRecords(records []ChunkPruningRecord) []byte {
	var buf bytes.Buffer
	putUint32(&buf, uint32(len(records)))
	for _, r := range records {
		putHash(&buf, r.CandidateHash)
		putUint64(&buf, r.BlockNumber)
		buf.WriteByte(byte(r.State))
		putUint32(&buf, r.ChunkIndex)
		putPruningDelay(&buf, r.PruneAt)
	}
	return buf.Bytes()
}

func decodeChunkPruningRecords(raw []byte) ([]ChunkPruningRecord, error) {
	r := bytes.NewReader(raw)
	n, err := getUint32(r)
	if err != nil {
		return nil, errors.Wrap(err, "count")
	}
	records := make([]ChunkPruningRecord, 0, n)
	for i := uint32(0); i < n; i++ {
		hash, err := getHash(r)
		if err != nil {
			return nil, errors.Wrap(err, "candidate hash")
		}
		blockNumber, err := getUint64(r)
		if err != nil {
			return nil, errors.Wrap(err, "block number")
		}
		stateByte, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "state")
		}
		chunkIndex, err := getUint32(r)
		if err != nil {
			return nil, errors.Wrap(err, "chunk index")
		}
		pruneAt, err := getPruningDelay(r)
		if err != nil {
			return nil, errors.Wrap(err, "prune at")
		}
		records = append(records, ChunkPruningRecord{
			CandidateHash: hash,
			BlockNumber:   blockNumber,
			State:         CandidateState(stateByte),
			ChunkIndex:    chunkIndex,
			PruneAt:       pruneAt,
		})
	}
	return records, nil
}

// --- NextWakeup cache value ---

func encodeNextWakeup(t time.Time) []byte {
	var buf bytes.Buffer
	putUint64(&buf, uint64(t.UnixNano()))
	return buf.Bytes()
}

func decodeNextWakeup(raw []byte) (time.Time, error) {
	r := bytes.NewReader(raw)
	nanos, err := getUint64(r)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, int64(nanos)).UTC(), nil
}
