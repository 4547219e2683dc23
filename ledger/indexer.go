package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobg/multichan"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

// DefaultPin names the store pin the indexer advances.
const DefaultPin = "ledger"

// Indexer is the single writer of the ledger. Submitted proofs are stored,
// published on a multichan and folded in submission order by Run.
type Indexer struct {
	store   *Store
	decoder cairo.Decoder
	pin     string
	log     log.Logger

	submitMu  sync.Mutex
	submitted *multichan.W
	processed *multichan.W

	mu     sync.RWMutex
	ledger *Ledger
	pinned int64
}

type IndexerOption func(*Indexer)

func WithDecoder(d cairo.Decoder) IndexerOption { return func(ix *Indexer) { ix.decoder = d } }

func WithLogger(l log.Logger) IndexerOption { return func(ix *Indexer) { ix.log = l } }

func WithPin(name string) IndexerOption { return func(ix *Indexer) { ix.pin = name } }

func NewIndexer(store *Store, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:     store,
		pin:       DefaultPin,
		log:       log.Root(),
		submitted: multichan.New((*StateChange)(nil)),
		processed: multichan.New((*StateChange)(nil)),
		ledger:    New(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Submit stores a proof for contract and queues it for Run.
func (ix *Indexer) Submit(ctx context.Context, contract string, proof []byte) (*StateChange, error) {
	if len(proof) == 0 {
		return nil, fmt.Errorf("empty proof")
	}
	sc := &StateChange{Contract: contract, Proof: proof}

	// Seqs must reach the stream in insert order.
	ix.submitMu.Lock()
	defer ix.submitMu.Unlock()
	if err := ix.store.Insert(ctx, sc); err != nil {
		return nil, err
	}
	ix.log.Debug("State change submitted", "id", sc.ID, "seq", sc.Seq, "contract", contract, "size", len(proof))
	queued := *sc
	ix.submitted.Write(&queued)
	return sc, nil
}

// Processed returns a reader of every state change Run finishes, applied or
// skipped. Only changes finished after the call are seen.
func (ix *Indexer) Processed() *multichan.R {
	return ix.processed.Reader()
}

// Snapshot returns a copy of the current ledger.
func (ix *Indexer) Snapshot() *Ledger {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ledger.Clone()
}

// SnapshotAt returns a copy of the current ledger together with the seq of
// the last state change folded into it.
func (ix *Indexer) SnapshotAt() (*Ledger, int64) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ledger.Clone(), ix.pinned
}

// Pinned is the seq of the last processed state change.
func (ix *Indexer) Pinned() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.pinned
}

// Run replays the stored ledger, processes the backlog and then live
// submissions until ctx is done.
func (ix *Indexer) Run(ctx context.Context) error {
	defer ix.processed.Close()

	// Subscribe before reading the backlog so nothing submitted in between
	// is missed; duplicates are dropped by seq.
	r := ix.submitted.Reader()

	pinned, err := ix.store.Pin(ctx, ix.pin)
	if err != nil {
		return err
	}
	applied, err := ix.store.AppliedChanges(ctx, pinned)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.ledger = Replay(applied)
	ix.pinned = pinned
	ix.mu.Unlock()
	ix.log.Info("Ledger replayed", "pin", ix.pin, "seq", pinned, "applied", len(applied))

	backlog, err := ix.store.After(ctx, pinned)
	if err != nil {
		return err
	}
	for _, sc := range backlog {
		if err := ix.process(ctx, sc); err != nil {
			return err
		}
	}

	for {
		x, ok := r.Read(ctx)
		if !ok {
			return ctx.Err()
		}
		if err := ix.process(ctx, x.(*StateChange)); err != nil {
			return err
		}
	}
}

func (ix *Indexer) process(ctx context.Context, sc *StateChange) error {
	if sc.Seq <= ix.Pinned() {
		return nil
	}

	var change protocol.BalanceChange
	reason := ""
	if sc.Contract != protocol.ContractSmileToken {
		reason = fmt.Sprintf("contract %s not indexed", sc.Contract)
	} else {
		var err error
		change, err = ix.decoder.Decode(sc.Proof)
		if err != nil {
			reason = err.Error()
		}
	}

	if reason != "" {
		if err := ix.store.MarkSkipped(ctx, ix.pin, sc.Seq, reason); err != nil {
			return errors.Wrapf(err, "skipping state change %d", sc.Seq)
		}
		ix.log.Warn("State change skipped", "id", sc.ID, "seq", sc.Seq, "reason", reason)
		sc.Status, sc.Reason = StatusSkipped, reason
		ix.mu.Lock()
		ix.pinned = sc.Seq
		ix.mu.Unlock()
		ix.processed.Write(sc)
		return nil
	}

	if err := ix.store.MarkApplied(ctx, ix.pin, sc.Seq, change); err != nil {
		return errors.Wrapf(err, "applying state change %d", sc.Seq)
	}
	ix.mu.Lock()
	Apply(ix.ledger, change)
	ix.pinned = sc.Seq
	ix.mu.Unlock()
	ix.log.Info("State change applied", "id", sc.ID, "seq", sc.Seq, "from", change.From, "to", change.To, "value", change.Value)

	sc.Status, sc.Change = StatusApplied, change
	ix.processed.Write(sc)
	return nil
}
