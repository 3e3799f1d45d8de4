package engine

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// HopRecord is the per-hop execution record.
type HopRecord struct {
	Index     int
	Venue     string
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
}

// RunRecord is the run-level completion record. Digest is a stable hash over
// the run's identity and amounts, usable to correlate an execution with its
// emitted result across systems.
type RunRecord struct {
	RunID       uint64
	Strategy    string
	Tokens      []common.Address
	AmountIn    *big.Int
	AmountOut   *big.Int
	Hops        []HopRecord
	Digest      uint64
	CompletedAt time.Time
}

// digest hashes run id, token path and terminal amounts.
func (r *RunRecord) digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], r.RunID)
	h.Write(buf[:])
	h.WriteString(r.Strategy)
	for _, token := range r.Tokens {
		h.Write(token.Bytes())
	}
	h.Write(r.AmountIn.Bytes())
	h.Write(r.AmountOut.Bytes())
	for _, hop := range r.Hops {
		h.WriteString(hop.Venue)
		h.Write(hop.AmountOut.Bytes())
	}
	return h.Sum64()
}

// recordLog keeps a bounded window of completed run records, enough to
// correlate a run id with its result without a persistence layer.
type recordLog struct {
	cache *lru.Cache
}

func newRecordLog(size int) (*recordLog, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &recordLog{cache: cache}, nil
}

func (l *recordLog) add(rec *RunRecord) {
	l.cache.Add(rec.RunID, rec)
}

// Record returns the retained record for a run id, if still cached.
func (l *recordLog) record(id uint64) (*RunRecord, bool) {
	v, ok := l.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*RunRecord), true
}
