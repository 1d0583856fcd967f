// Package audit keeps a hash-chained, append-only record of engine
// decisions. Each record hashes its payload together with the previous
// record's hash, so any after-the-fact edit breaks the chain and is
// detectable by Verify.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one link in the audit chain.
type Record struct {
	Index     int       `json:"index"`
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   any       `json:"details"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// Trail is the chain of records. Safe for concurrent use; API handlers
// append from concurrent request goroutines.
type Trail struct {
	mu      sync.Mutex
	records []Record
}

// NewTrail starts a chain with its genesis record.
func NewTrail() *Trail {
	t := &Trail{}
	genesis := Record{
		Index:     0,
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    "genesis",
		Details:   "audit trail started",
		PrevHash:  "0",
	}
	genesis.Hash = hashRecord(genesis)
	t.records = append(t.records, genesis)
	return t
}

// Append adds a record for an action and returns its hash.
func (t *Trail) Append(action string, details any) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.records[len(t.records)-1]
	rec := Record{
		Index:     len(t.records),
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   details,
		PrevHash:  prev.Hash,
	}
	rec.Hash = hashRecord(rec)
	t.records = append(t.records, rec)
	return rec.Hash
}

// Records returns a copy of the chain.
func (t *Trail) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Verify walks the chain and reports the first tamper it finds: either a
// record whose contents no longer match its hash, or a broken link.
func (t *Trail) Verify() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 1; i < len(t.records); i++ {
		cur := t.records[i]
		if hashRecord(cur) != cur.Hash {
			return fmt.Errorf("audit record %d: contents do not match hash", i)
		}
		if cur.PrevHash != t.records[i-1].Hash {
			return fmt.Errorf("audit record %d: chain link broken", i)
		}
	}
	return nil
}

func hashRecord(r Record) string {
	payload, err := json.Marshal(r.Details)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", r.Details))
	}
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%d|%s|%s|%s",
		r.Index, r.ID, r.Timestamp.UnixNano(), r.Action, payload, r.PrevHash)
	return hex.EncodeToString(h.Sum(nil))
}
