package protocol

import "encoding/json"

// Identifier names a balance holder: an application name such as "faucet" or a
// derived handle such as "<hex>.ecdsa_secp256r1".
type Identifier string

const (
	// GenesisSender is the distributor that holds the whole supply at genesis.
	GenesisSender Identifier = "faucet"

	// GenesisSupply is the genesis allocation of GenesisSender.
	GenesisSupply int64 = 1_000_000

	// SmileInitialState is the state digest the smile program starts from.
	SmileInitialState uint64 = 666
)

type BalanceEntry struct {
	Name   Identifier `json:"name"`
	Amount int64      `json:"amount"`
}

// BalanceState is an ordered balance list. Order is significant: it is hashed
// in order. Names are assumed unique but that is not enforced here.
type BalanceState []BalanceEntry

// GenesisState returns the balance state every ledger starts from.
func GenesisState() BalanceState {
	return BalanceState{{Name: GenesisSender, Amount: GenesisSupply}}
}

// BalanceChange is one transfer decoded from a proof output.
type BalanceChange struct {
	From  Identifier `json:"from"`
	To    Identifier `json:"to"`
	Value int64      `json:"value"`
}

// ParseBalanceStateJSON decodes a JSON array of {"name","amount"} objects.
// Amounts must be JSON integers.
func ParseBalanceStateJSON(raw []byte) (BalanceState, error) {
	var entries []struct {
		Name   Identifier  `json:"name"`
		Amount json.Number `json:"amount"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	out := make(BalanceState, 0, len(entries))
	for _, e := range entries {
		amount, err := ParseAmount(e.Amount.String())
		if err != nil {
			return nil, err
		}
		out = append(out, BalanceEntry{Name: e.Name, Amount: amount})
	}
	return out, nil
}
