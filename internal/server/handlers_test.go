package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Org-ID", ts.orgID.String())
	req.Header.Set("X-Actor-Type", "user")
	req.Header.Set("X-Actor-ID", "admin-1")

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Data
}

func TestDealEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/policies", map[string]any{
		"title":           "standard",
		"commission_rate": 5,
		"bonus_threshold": 50_000,
		"bonus_amount":    10_000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/deals", map[string]any{
		"title":    "acme renewal",
		"owner_id": "rep-1",
		"amount":   75_000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	dealID := decodeData(t, w)["id"].(string)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/submit", dealID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/approve", dealID), map[string]any{
		"comment": "ok",
	})
	require.Equal(t, http.StatusOK, w.Code)
	approved := decodeData(t, w)
	require.Equal(t, "Approved", approved["status"])
	require.Equal(t, 13_750.0, approved["incentive"])
	require.Equal(t, "PENDING", approved["payout_status"])

	// terminal deals cannot be re-reviewed
	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/reject", dealID), map[string]any{
		"reason": "too late",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/deals/%s", dealID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "HIGH", decodeData(t, w)["risk_badge"])
}

func TestRejectValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/deals", map[string]any{
		"title":    "deal",
		"owner_id": "rep-1",
		"amount":   1_000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	dealID := decodeData(t, w)["id"].(string)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/submit", dealID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/reject", dealID), map[string]any{
		"reason": "",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettlementEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/policies", map[string]any{
		"title":           "flat",
		"commission_rate": 10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/deals", map[string]any{
		"title":    "deal",
		"owner_id": "rep-1",
		"amount":   10_000,
	})
	dealID := decodeData(t, w)["id"].(string)
	ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/submit", dealID), nil)
	ts.do(t, http.MethodPost, fmt.Sprintf("/v1/deals/%s/approve", dealID), nil)

	w = ts.do(t, http.MethodGet, "/v1/payouts/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1_000.0, decodeData(t, w)["total_pending"])

	w = ts.do(t, http.MethodPost, "/v1/payouts/mark-paid", map[string]any{
		"deal_ids": []string{dealID},
	})
	require.Equal(t, http.StatusOK, w.Code)
	run := decodeData(t, w)
	require.Equal(t, 1.0, run["settled_count"])

	w = ts.do(t, http.MethodGet, "/v1/payouts/summary", nil)
	summary := decodeData(t, w)
	require.Equal(t, 0.0, summary["total_pending"])
	require.Equal(t, 1_000.0, summary["total_paid"])
}

func TestMissingOrgHeader(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/deals", nil)
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 2, "defaults seeded on first list")

	w = ts.do(t, http.MethodPost, "/v1/rules", map[string]any{
		"name":      "mega deal",
		"metric":    "DEAL_AMOUNT",
		"operator":  "GTE",
		"threshold": 500_000,
		"action":    "NOTIFY_ADMIN",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTargetEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/targets", map[string]any{
		"owner_id": "rep-1",
		"amount":   200_000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/targets/rep-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 200_000.0, decodeData(t, w)["amount"])

	// unset targets fall back to the configured default
	w = ts.do(t, http.MethodGet, "/v1/targets/rep-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 100_000.0, decodeData(t, w)["amount"])
}
