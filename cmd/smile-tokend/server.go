package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Abdullah1738/smile-token/ledger"
	"github.com/Abdullah1738/smile-token/offchain/cairoprover"
	"github.com/Abdullah1738/smile-token/protocol"
)

const (
	maxBody      = 8 << 20
	defaultLimit = 50
	maxLimit     = 1000
)

type server struct {
	ix          *ledger.Indexer
	store       *ledger.Store
	commitments *protocol.CommitmentCache
	log         log.Logger
}

func newServer(ix *ledger.Indexer, store *ledger.Store, commitments *protocol.CommitmentCache, logger log.Logger) *server {
	return &server{ix: ix, store: store, commitments: commitments, log: logger}
}

func (s *server) Handler() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/state-changes", s.submit).Methods(http.MethodPost)
	v1.HandleFunc("/state-changes", s.recent).Methods(http.MethodGet)
	v1.HandleFunc("/state-changes/{id}", s.stateChange).Methods(http.MethodGet)
	v1.HandleFunc("/balances", s.balances).Methods(http.MethodGet)
	v1.HandleFunc("/balances/{name}", s.balance).Methods(http.MethodGet)
	v1.HandleFunc("/commitment", s.commitment).Methods(http.MethodGet)
	v1.HandleFunc("/calldata/transfer", s.transferCalldata).Methods(http.MethodPost)
	return r
}

type submitRequest struct {
	Contract string               `json:"contract"`
	Proof    string               `json:"proof"`
	Encoding cairoprover.Encoding `json:"encoding"`
}

func (s *server) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Contract == "" {
		req.Contract = protocol.ContractSmileToken
	}
	proof, err := cairoprover.DecodeProof(req.Proof, req.Encoding)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	sc, err := s.ix.Submit(r.Context(), req.Contract, proof)
	if err != nil {
		s.log.Error("Submit failed", "contract", req.Contract, "err", err)
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sc)
}

func (s *server) recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			httpError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, maxLimit)
	}
	out, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	if out == nil {
		out = []*ledger.StateChange{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) stateChange(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	sc, err := s.store.Get(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	if sc == nil {
		httpError(w, http.StatusNotFound, errors.New("state change not found"))
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

type balancesResponse struct {
	Seq      int64                         `json:"seq"`
	Applied  uint64                        `json:"applied"`
	Balances map[protocol.Identifier]int64 `json:"balances"`
}

func (s *server) balances(w http.ResponseWriter, _ *http.Request) {
	snap, seq := s.ix.SnapshotAt()
	writeJSON(w, http.StatusOK, balancesResponse{Seq: seq, Applied: snap.Applied(), Balances: snap.Balances()})
}

func (s *server) balance(w http.ResponseWriter, r *http.Request) {
	name := protocol.Identifier(mux.Vars(r)["name"])
	v, ok := s.ix.Snapshot().Balance(name)
	if !ok {
		httpError(w, http.StatusNotFound, errors.New("unknown identifier"))
		return
	}
	writeJSON(w, http.StatusOK, protocol.BalanceEntry{Name: name, Amount: v})
}

type commitmentResponse struct {
	Seq        int64                 `json:"seq"`
	State      protocol.BalanceState `json:"state"`
	Commitment string                `json:"commitment"`
}

func (s *server) commitment(w http.ResponseWriter, _ *http.Request) {
	snap, seq := s.ix.SnapshotAt()
	state := snap.State()
	h, err := s.commitments.Commit(state)
	if err != nil {
		// A negative balance cannot be committed to.
		httpError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, commitmentResponse{Seq: seq, State: state, Commitment: protocol.FeltDecimal(h)})
}

type transferRequest struct {
	State  json.RawMessage     `json:"state,omitempty"`
	Amount int64               `json:"amount"`
	From   protocol.Identifier `json:"from"`
	To     protocol.Identifier `json:"to"`
}

type transferResponse struct {
	Calldata   string `json:"calldata"`
	Commitment string `json:"commitment"`
}

// transferCalldata builds transfer calldata over the given state, or over the
// indexed ledger when none is given.
func (s *server) transferCalldata(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !readJSON(w, r, &req) {
		return
	}
	var state protocol.BalanceState
	if len(req.State) > 0 && string(req.State) != "null" {
		var err error
		if state, err = protocol.ParseBalanceStateJSON(req.State); err != nil {
			httpError(w, http.StatusBadRequest, err)
			return
		}
	} else {
		state = s.ix.Snapshot().State()
	}

	b := protocol.Builder{Committer: s.commitments}
	calldata, err := b.Transfer(protocol.TransferArgs{State: state, Amount: req.Amount, From: req.From, To: req.To})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, protocol.ErrCalldataShape) || errors.Is(err, protocol.ErrCommitmentInput) || errors.Is(err, protocol.ErrEncoding) {
			status = http.StatusBadRequest
		}
		httpError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, transferResponse{
		Calldata:   calldata.String(),
		Commitment: protocol.FeltDecimal(calldata[len(calldata)-1]),
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, errors.New("invalid json"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
