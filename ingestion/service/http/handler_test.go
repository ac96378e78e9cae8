package http

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockend-dev/AleoWhistle/blockchain/client/mock"
	core "github.com/blockend-dev/AleoWhistle/ingestion/service/core"
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/producer"
	"github.com/blockend-dev/AleoWhistle/storage/content"
	"github.com/blockend-dev/AleoWhistle/storage/store"
	"github.com/blockend-dev/AleoWhistle/submission"
)

type gateway struct {
	mux      *http.ServeMux
	ledger   *mock.Ledger
	content  *content.MemoryStore
	producer *producer.MockProducer
}

func newGateway(t *testing.T, maxBody int64) *gateway {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	admin, err := keywrap.GenerateKey(rand.Reader)
	require.NoError(t, err)

	g := &gateway{
		mux:      http.NewServeMux(),
		ledger:   mock.NewLedger(nil, logger),
		content:  content.NewMemoryStore(),
		producer: producer.NewMockProducer(logger),
	}
	orch := submission.NewOrchestrator(g.content, g.ledger, nil, logger)
	session := submission.Session{Signer: "aleo1gateway", Recipients: []keywrap.PublicKey{admin.Public()}}
	svc := core.NewService(orch, session, store.NewMemoryStore(logger), g.producer, logger, 1, 10*time.Millisecond, 4)
	t.Cleanup(svc.Close)
	NewReportHandler(svc, maxBody, logger).Register(g.mux)
	return g
}

func (g *gateway) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSubmitReportAccepted(t *testing.T) {
	g := newGateway(t, 1<<20)
	rec := g.do(http.MethodPost, "/v1/reports", map[string]interface{}{
		"title":       "Bribery",
		"description": "Procurement officer accepted cash.",
		"category":    3,
		"severity":    4,
		"evidence": []map[string]string{
			{"name": "ledger.csv", "data": base64.StdEncoding.EncodeToString([]byte("a,b\n1,2\n"))},
		},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "tmp_1", body["handle"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Regexp(t, `^\d+field$`, body["seed"])
	assert.Regexp(t, `^\d+field$`, body["content_digest"])
	assert.NotEmpty(t, body["locator"])
	requestID, _ := body["request_id"].(string)
	require.NotEmpty(t, requestID)

	// report plus one evidence object
	assert.Equal(t, 2, g.content.Len())

	require.Eventually(t, func() bool {
		r := g.do(http.MethodGet, "/v1/transactions?request_id="+requestID, nil)
		return r.Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)

	tx := decodeBody(t, g.do(http.MethodGet, "/v1/transactions?request_id="+requestID, nil))
	assert.Equal(t, "tmp_1", tx["handle"])
	assert.Equal(t, "submit_report", tx["kind"])
	assert.Len(t, g.producer.Published(), 1)
}

func TestSubmitReportRejectsBadInput(t *testing.T) {
	g := newGateway(t, 1<<20)

	rec := g.do(http.MethodPost, "/v1/reports", map[string]interface{}{"title": "", "description": "d"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = g.do(http.MethodGet, "/v1/reports", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/reports", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/reports", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	g.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, g.ledger.Executed())
}

func TestSubmitReportBodyLimit(t *testing.T) {
	g := newGateway(t, 64)
	rec := g.do(http.MethodPost, "/v1/reports", map[string]interface{}{
		"title":       "Too long",
		"description": string(bytes.Repeat([]byte("x"), 256)),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSubmitReportLedgerFailure(t *testing.T) {
	g := newGateway(t, 1<<20)
	g.ledger.FailExecute(errors.New("wallet declined"))

	rec := g.do(http.MethodPost, "/v1/reports", map[string]interface{}{"title": "t", "description": "d"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUpdateStatusAccepted(t *testing.T) {
	g := newGateway(t, 1<<20)
	rec := g.do(http.MethodPost, "/v1/reports/status", map[string]string{"report_id": "42field", "status": "under_review"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "tmp_1", decodeBody(t, rec)["handle"])

	rec = g.do(http.MethodPost, "/v1/reports/status", map[string]string{"report_id": "42field", "status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransactionNotFound(t *testing.T) {
	g := newGateway(t, 1<<20)
	assert.Equal(t, http.StatusNotFound, g.do(http.MethodGet, "/v1/transactions?request_id=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, g.do(http.MethodGet, "/v1/transactions", nil).Code)
}

func TestHealthCheck(t *testing.T) {
	g := newGateway(t, 1<<20)
	rec := g.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}
