package solve_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/point-planner/internal/common"
	"github.com/noah-isme/point-planner/internal/planner"
	"github.com/noah-isme/point-planner/internal/solve"
)

type solveEnvelope struct {
	Data struct {
		PlanID string         `json:"planId"`
		Cached bool           `json:"cached"`
		Result planner.Result `json:"result"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error common.ErrorBody `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newRedisService(t)
	r := chi.NewRouter()
	r.Route("/api/v1/solve", solve.NewHandler(svc).Routes)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func requireErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, code, body.Error.Code)
}

func TestSolveHandlerSuccessThenCached(t *testing.T) {
	h := newRouter(t)

	rr := post(t, h, `{"n":6}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first solveEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	require.False(t, first.Data.Cached)
	require.NotEmpty(t, first.Data.PlanID)
	require.Equal(t, planner.Money(10800), first.Data.Result.Summary.CashTotal)
	require.Len(t, first.Data.Result.Transactions, 1)
	require.Equal(t, 6, first.Data.Result.Transactions[0].Quantity)

	rr = post(t, h, `{"n":6}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var second solveEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	require.True(t, second.Data.Cached)
	require.Equal(t, first.Data.Result.Summary, second.Data.Result.Summary)
}

func TestSolveHandlerParamsOverride(t *testing.T) {
	h := newRouter(t)

	rr := post(t, h, `{"n":1,"params":{"unitPrice":12000}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body solveEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, planner.Money(12000), body.Data.Result.Summary.CashTotal)
	require.Equal(t, planner.Money(2181), body.Data.Result.Summary.LeftoverPoints)
}

func TestSolveHandlerObjectiveOverride(t *testing.T) {
	h := newRouter(t)
	params := `"unitPrice":300,"taxRatePct":0,"pointRatePct":50,"minEligibleTotal":0,"capPointsToRemaining":false`

	rr := post(t, h, `{"n":8,"startPoints":100,"params":{`+params+`}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var byLeftover solveEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &byLeftover))

	rr = post(t, h, `{"n":8,"startPoints":100,"params":{`+params+`,"objective":"min_cash_then_min_orders"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var byOrders solveEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &byOrders))

	require.False(t, byOrders.Data.Cached, "objective is part of the cache key")
	require.Equal(t, byLeftover.Data.Result.Summary.CashTotal, byOrders.Data.Result.Summary.CashTotal)
	require.Equal(t, 6, byLeftover.Data.Result.Summary.OrderCount)
	require.Equal(t, 4, byOrders.Data.Result.Summary.OrderCount)
}

func TestSolveHandlerErrors(t *testing.T) {
	h := newRouter(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid json", `{"n":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown field", `{"n":1,"qty":2}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing n", `{}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"zero n", `{"n":0}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"negative n", `{"n":-4}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"n above cap", `{"n":51}`, http.StatusBadRequest, "QUANTITY_TOO_LARGE"},
		{"negative start points", `{"n":2,"startPoints":-1}`, http.StatusBadRequest, "INVALID_PARAMS"},
		{"bad basis", `{"n":2,"params":{"basis":"subtotal"}}`, http.StatusBadRequest, "INVALID_PARAMS"},
		{"bad tax", `{"n":2,"params":{"taxRatePct":100}}`, http.StatusBadRequest, "INVALID_PARAMS"},
		{"bad objective", `{"n":2,"params":{"objective":"min_leftover"}}`, http.StatusBadRequest, "INVALID_PARAMS"},
		{"unbounded window", `{"n":20,"params":{"thresholdWindow":1099511627776}}`, http.StatusBadRequest, "INVALID_PARAMS"},
		{"unbounded small max", `{"n":20,"params":{"smallQuantityMax":9223372036854775807}}`, http.StatusBadRequest, "INVALID_PARAMS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireErrorCode(t, post(t, h, tc.body), tc.status, tc.code)
		})
	}
}

func TestDefaultsHandler(t *testing.T) {
	h := newRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/solve/defaults", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			Params      planner.Config `json:"params"`
			MaxQuantity int            `json:"maxQuantity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, planner.DefaultConfig(), body.Data.Params)
	require.Equal(t, 50, body.Data.MaxQuantity)
}
