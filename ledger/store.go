package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/bobg/sqlutil"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/Abdullah1738/smile-token/protocol"
)

// Status is the processing state of a stored state change.
type Status string

const (
	StatusPending Status = "pending"
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
)

// StateChange is one submitted proof and, once processed, its outcome.
type StateChange struct {
	Seq        int64                  `json:"seq"`
	ID         uuid.UUID              `json:"id"`
	Contract   string                 `json:"contract"`
	Proof      []byte                 `json:"-"`
	Status     Status                 `json:"status"`
	Change     protocol.BalanceChange `json:"change"`
	Reason     string                 `json:"reason,omitempty"`
	ReceivedAt time.Time              `json:"received_at"`
}

// Store persists state changes in sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening db %s", dsn)
	}
	// One connection: the indexer is the only writer and ":memory:"
	// databases are per connection.
	db.SetMaxOpenConns(1)

	s, err := NewStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore migrates db and wraps it.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, errors.Wrap(err, "creating migrations table")
	}
	if err := sqlutil.Migrate(ctx, db, migrations); err != nil {
		return nil, errors.Wrap(err, "migrating db")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Insert records a new pending state change and fills in its Seq.
func (s *Store) Insert(ctx context.Context, sc *StateChange) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	if sc.ReceivedAt.IsZero() {
		sc.ReceivedAt = time.Now().UTC()
	}
	sc.Status = StatusPending
	const q = `INSERT INTO state_changes (id, contract, proof, status, received_at) VALUES ($1, $2, $3, $4, $5)`
	res, err := s.db.ExecContext(ctx, q, sc.ID.String(), sc.Contract, sc.Proof, string(StatusPending), sc.ReceivedAt.UnixNano())
	if err != nil {
		return errors.Wrapf(err, "inserting state change %s", sc.ID)
	}
	sc.Seq, err = res.LastInsertId()
	return errors.Wrap(err, "getting state change seq")
}

// MarkApplied records the decoded change of seq and advances pin to seq, in
// one transaction.
func (s *Store) MarkApplied(ctx context.Context, pin string, seq int64, change protocol.BalanceChange) error {
	return s.finish(ctx, pin, seq, `UPDATE state_changes SET status = $1, from_id = $2, to_id = $3, value = $4 WHERE seq = $5`,
		string(StatusApplied), string(change.From), string(change.To), change.Value, seq)
}

// MarkSkipped records why seq was not applied and advances pin to seq.
func (s *Store) MarkSkipped(ctx context.Context, pin string, seq int64, reason string) error {
	return s.finish(ctx, pin, seq, `UPDATE state_changes SET status = $1, reason = $2 WHERE seq = $3`,
		string(StatusSkipped), reason, seq)
}

func (s *Store) finish(ctx context.Context, pin string, seq int64, q string, args ...interface{}) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "updating state change %d", seq)
	}
	const pinQ = `INSERT INTO pins (name, seq) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET seq = excluded.seq`
	if _, err := dbtx.ExecContext(ctx, pinQ, pin, seq); err != nil {
		return errors.Wrapf(err, "updating pin %s to %d", pin, seq)
	}
	return errors.Wrap(dbtx.Commit(), "committing")
}

// Pin returns the last seq processed under name, 0 if none.
func (s *Store) Pin(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT seq FROM pins WHERE name = $1`, name).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return seq, errors.Wrapf(err, "getting pin %s", name)
}

// AppliedChanges returns the applied balance changes with seq <= upTo, in
// order.
func (s *Store) AppliedChanges(ctx context.Context, upTo int64) ([]protocol.BalanceChange, error) {
	var out []protocol.BalanceChange
	const q = `SELECT from_id, to_id, value FROM state_changes WHERE status = $1 AND seq <= $2 ORDER BY seq`
	err := sqlutil.ForQueryRows(ctx, s.db, q, string(StatusApplied), upTo, func(from, to string, value int64) {
		out = append(out, protocol.BalanceChange{From: protocol.Identifier(from), To: protocol.Identifier(to), Value: value})
	})
	return out, errors.Wrap(err, "reading applied changes")
}

// After returns the state changes with seq > after, in order.
func (s *Store) After(ctx context.Context, after int64) ([]*StateChange, error) {
	return s.query(ctx, `SELECT seq, id, contract, proof, status, from_id, to_id, value, reason, received_at FROM state_changes WHERE seq > $1 ORDER BY seq`, after)
}

// Recent returns up to limit state changes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*StateChange, error) {
	return s.query(ctx, `SELECT seq, id, contract, proof, status, from_id, to_id, value, reason, received_at FROM state_changes ORDER BY seq DESC LIMIT $1`, limit)
}

// Get returns the state change with the given id, or nil.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*StateChange, error) {
	out, err := s.query(ctx, `SELECT seq, id, contract, proof, status, from_id, to_id, value, reason, received_at FROM state_changes WHERE id = $1`, id.String())
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]*StateChange, error) {
	var out []*StateChange
	args = append(args, func(seq int64, id, contract string, proof []byte, status, from, to string, value int64, reason string, receivedAt int64) error {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return errors.Wrapf(err, "parsing id of state change %d", seq)
		}
		out = append(out, &StateChange{
			Seq:      seq,
			ID:       parsed,
			Contract: contract,
			Proof:    proof,
			Status:   Status(status),
			Change: protocol.BalanceChange{
				From:  protocol.Identifier(from),
				To:    protocol.Identifier(to),
				Value: value,
			},
			Reason:     reason,
			ReceivedAt: time.Unix(0, receivedAt).UTC(),
		})
		return nil
	})
	err := sqlutil.ForQueryRows(ctx, s.db, q, args...)
	return out, errors.Wrap(err, "querying state changes")
}
