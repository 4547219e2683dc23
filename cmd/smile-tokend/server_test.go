package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/Abdullah1738/smile-token/ledger"
	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

const genesisHash = "712283419138572991963600362117880041447189344350653266109245321471516704496"

type harness struct {
	ix    *ledger.Indexer
	store *ledger.Store
	srv   *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	store, err := ledger.Open(ctx, ":memory:")
	require.NoError(t, err)
	commitments, err := protocol.NewCommitmentCache(16)
	require.NoError(t, err)

	ix := ledger.NewIndexer(store, ledger.WithLogger(log.New()))
	done := make(chan error, 1)
	go func() { done <- ix.Run(ctx) }()

	srv := httptest.NewServer(newServer(ix, store, commitments, log.New()).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		store.Close()
	})
	return &harness{ix: ix, store: store, srv: srv}
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func proofText(t *testing.T, to protocol.Identifier, value int64) string {
	t.Helper()
	out, err := cairo.TransferOutput(cairo.OutputFormatV1, protocol.BalanceChange{From: protocol.GenesisSender, To: to, Value: value})
	require.NoError(t, err)
	raw, err := cairo.ProofRecord{Proof: []byte("proof"), Inputs: []byte("inputs"), Outputs: out}.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestServer_GenesisCommitment(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/v1/commitment", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var got commitmentResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, genesisHash, got.Commitment)
	require.Equal(t, protocol.GenesisState(), got.State)
}

func TestServer_SubmitAndQuery(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	processed := h.ix.Processed()

	status, body := h.do(t, http.MethodPost, "/v1/state-changes", submitRequest{Proof: proofText(t, "bob", 100)})
	require.Equal(t, http.StatusAccepted, status, string(body))
	var submitted ledger.StateChange
	require.NoError(t, json.Unmarshal(body, &submitted))
	require.Equal(t, int64(1), submitted.Seq)
	require.Equal(t, protocol.ContractSmileToken, submitted.Contract)

	_, ok := processed.Read(ctx)
	require.True(t, ok)

	status, body = h.do(t, http.MethodGet, "/v1/state-changes/"+submitted.ID.String(), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var sc ledger.StateChange
	require.NoError(t, json.Unmarshal(body, &sc))
	require.Equal(t, ledger.StatusApplied, sc.Status)
	require.Equal(t, protocol.BalanceChange{From: "faucet", To: "bob", Value: 100}, sc.Change)

	status, body = h.do(t, http.MethodGet, "/v1/balances", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var bal balancesResponse
	require.NoError(t, json.Unmarshal(body, &bal))
	require.Equal(t, int64(1), bal.Seq)
	require.Equal(t, uint64(1), bal.Applied)
	require.Equal(t, map[protocol.Identifier]int64{"faucet": 999_900, "bob": 100}, bal.Balances)

	status, body = h.do(t, http.MethodGet, "/v1/balances/bob", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.JSONEq(t, `{"name":"bob","amount":100}`, string(body))

	status, _ = h.do(t, http.MethodGet, "/v1/balances/carol", nil)
	require.Equal(t, http.StatusNotFound, status)

	want, err := protocol.Commit(protocol.BalanceState{{Name: "faucet", Amount: 999_900}, {Name: "bob", Amount: 100}})
	require.NoError(t, err)
	status, body = h.do(t, http.MethodGet, "/v1/commitment", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var cm commitmentResponse
	require.NoError(t, json.Unmarshal(body, &cm))
	require.Equal(t, protocol.FeltDecimal(want), cm.Commitment)

	status, body = h.do(t, http.MethodGet, "/v1/state-changes?limit=10", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var recent []ledger.StateChange
	require.NoError(t, json.Unmarshal(body, &recent))
	require.Len(t, recent, 1)
	require.Equal(t, submitted.ID, recent[0].ID)
}

func TestServer_SubmitSkipsOtherContracts(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	processed := h.ix.Processed()

	status, body := h.do(t, http.MethodPost, "/v1/state-changes", submitRequest{
		Contract: protocol.ContractSmile,
		Proof:    "0x0102",
		Encoding: "hex",
	})
	require.Equal(t, http.StatusAccepted, status, string(body))

	x, ok := processed.Read(ctx)
	require.True(t, ok)
	require.Equal(t, ledger.StatusSkipped, x.(*ledger.StateChange).Status)
	require.Equal(t, uint64(0), h.ix.Snapshot().Applied())
}

func TestServer_TransferCalldata(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/v1/calldata/transfer", map[string]any{
		"state":  []map[string]any{{"name": "bob", "amount": 100}, {"name": "alice", "amount": 0}},
		"amount": 99,
		"from":   "bob",
		"to":     "max",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var got transferResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "[2 0 6451042 3 100 0 418430673765 5 0 99 0 6451042 3 0 7168376 3 2553248914692030785942303172119107100577416932040888712016243391667211221779]", got.Calldata)
	require.Equal(t, "2553248914692030785942303172119107100577416932040888712016243391667211221779", got.Commitment)

	// Without a state the indexed ledger is used.
	status, body = h.do(t, http.MethodPost, "/v1/calldata/transfer", map[string]any{"amount": 5, "from": "faucet", "to": "bob"})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, genesisHash, got.Commitment)
}

func TestServer_Errors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "bad proof encoding", method: http.MethodPost, path: "/v1/state-changes", body: submitRequest{Proof: "%%%"}, want: http.StatusBadRequest},
		{name: "empty proof", method: http.MethodPost, path: "/v1/state-changes", body: submitRequest{Proof: ""}, want: http.StatusBadRequest},
		{name: "bad limit", method: http.MethodGet, path: "/v1/state-changes?limit=-1", want: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, path: "/v1/state-changes/nope", want: http.StatusBadRequest},
		{name: "unknown id", method: http.MethodGet, path: "/v1/state-changes/6f1c1c36-4c4e-4a1c-9d3e-2f1e0c7d9a11", want: http.StatusNotFound},
		{name: "negative amount", method: http.MethodPost, path: "/v1/calldata/transfer", body: map[string]any{"amount": -1, "from": "faucet", "to": "bob"}, want: http.StatusBadRequest},
		{name: "missing receiver", method: http.MethodPost, path: "/v1/calldata/transfer", body: map[string]any{"amount": 1, "from": "faucet"}, want: http.StatusBadRequest},
		{name: "method", method: http.MethodDelete, path: "/v1/balances", want: http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := h.do(t, tc.method, tc.path, tc.body)
			require.Equal(t, tc.want, status, string(body))
		})
	}

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/v1/calldata/transfer", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
