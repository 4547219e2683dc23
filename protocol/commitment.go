package protocol

import (
	"fmt"
	"strings"
	"sync"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	lru "github.com/hashicorp/golang-lru"
)

// Committer computes the initial-state digest of a balance state.
type Committer interface {
	Commit(state BalanceState) (*felt.Felt, error)
}

// CommitFunc adapts a plain function to Committer.
type CommitFunc func(state BalanceState) (*felt.Felt, error)

func (f CommitFunc) Commit(state BalanceState) (*felt.Felt, error) { return f(state) }

// Tokens returns the hashed token stream: for each entry, its ByteArray tokens
// followed by its amount. There is no count prefix.
func (s BalanceState) Tokens() ([]*felt.Felt, error) {
	out := make([]*felt.Felt, 0, len(s)*4)
	for i, e := range s {
		amount, err := FeltFromAmount(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Name, err)
		}
		out = append(out, EncodeByteArray(string(e.Name)).Felts()...)
		out = append(out, amount)
	}
	return out, nil
}

// CommitTokens folds tokens into a Pedersen chain seeded with 1:
//
//	acc_0 = 1
//	acc_i = pedersen(acc_{i-1}, token_i)
func CommitTokens(tokens []*felt.Felt) *felt.Felt {
	acc := new(felt.Felt).SetUint64(1)
	for _, t := range tokens {
		acc = crypto.Pedersen(acc, t)
	}
	return acc
}

// Commit returns the chained Pedersen commitment of state.
func Commit(state BalanceState) (*felt.Felt, error) {
	tokens, err := state.Tokens()
	if err != nil {
		return nil, err
	}
	return CommitTokens(tokens), nil
}

var (
	genesisOnce       sync.Once
	genesisCommitment *felt.Felt
)

// GenesisCommitment is Commit(GenesisState()).
func GenesisCommitment() *felt.Felt {
	genesisOnce.Do(func() {
		c, err := Commit(GenesisState())
		if err != nil {
			panic(err)
		}
		genesisCommitment = c
	})
	return new(felt.Felt).Set(genesisCommitment)
}

// CommitmentCache memoizes Commit by token stream. Safe for concurrent use.
type CommitmentCache struct {
	cache *lru.Cache
}

func NewCommitmentCache(size int) (*CommitmentCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CommitmentCache{cache: c}, nil
}

func (c *CommitmentCache) Commit(state BalanceState) (*felt.Felt, error) {
	tokens, err := state.Tokens()
	if err != nil {
		return nil, err
	}
	key := tokenKey(tokens)
	if v, ok := c.cache.Get(key); ok {
		return new(felt.Felt).Set(v.(*felt.Felt)), nil
	}
	out := CommitTokens(tokens)
	c.cache.Add(key, out)
	return new(felt.Felt).Set(out), nil
}

// Len reports the number of cached commitments.
func (c *CommitmentCache) Len() int { return c.cache.Len() }

func tokenKey(tokens []*felt.Felt) string {
	var sb strings.Builder
	for _, t := range tokens {
		b := t.Bytes()
		sb.Write(b[:])
	}
	return sb.String()
}
