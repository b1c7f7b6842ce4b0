package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finlens/internal/clients/marketdata"
	"github.com/aristath/finlens/internal/domain"
)

type mockMarketData struct {
	mock.Mock
}

func (m *mockMarketData) FetchFundHoldings(ctx context.Context, fundCode string) ([]domain.Holding, error) {
	args := m.Called(ctx, fundCode)
	holdings, _ := args.Get(0).([]domain.Holding)
	return holdings, args.Error(1)
}

func (m *mockMarketData) FetchHoldingsBatch(ctx context.Context, fundCodes []string) (*marketdata.BatchResult, error) {
	args := m.Called(ctx, fundCodes)
	result, _ := args.Get(0).(*marketdata.BatchResult)
	return result, args.Error(1)
}

func (m *mockMarketData) FetchOwnership(ctx context.Context, symbol string) ([]domain.OwnershipEntry, error) {
	args := m.Called(ctx, symbol)
	entries, _ := args.Get(0).([]domain.OwnershipEntry)
	return entries, args.Error(1)
}

func (m *mockMarketData) FetchValuationEstimates(ctx context.Context, symbol string) ([]domain.ValuationEstimate, error) {
	args := m.Called(ctx, symbol)
	estimates, _ := args.Get(0).([]domain.ValuationEstimate)
	return estimates, args.Error(1)
}

func serve(client MarketData, method, url string, body []byte) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(client, zerolog.Nop()).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, url, bytes.NewReader(body)))
	return rec
}

func TestHandleFundHoldings(t *testing.T) {
	client := &mockMarketData{}
	client.On("FetchFundHoldings", mock.Anything, "VCBF").
		Return([]domain.Holding{{FundCode: "VCBF", Symbol: "FPT", WeightPct: 6.5}}, nil)

	rec := serve(client, http.MethodGet, "/funds/vcbf/holdings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Fund     string           `json:"fund"`
			Holdings []domain.Holding `json:"holdings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VCBF", body.Data.Fund)
	require.Len(t, body.Data.Holdings, 1)
	assert.Equal(t, 6.5, body.Data.Holdings[0].WeightPct)
}

func TestHandleFundHoldings_ProviderFailure(t *testing.T) {
	client := &mockMarketData{}
	client.On("FetchFundHoldings", mock.Anything, "VCBF").
		Return(nil, domain.ProviderFailure("/fund/VCBF/holdings", errors.New("timeout")))

	rec := serve(client, http.MethodGet, "/funds/VCBF/holdings", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleHoldingsBatch(t *testing.T) {
	client := &mockMarketData{}
	client.On("FetchHoldingsBatch", mock.Anything, []string{"VCBF", "DCDS"}).Return(&marketdata.BatchResult{
		Holdings: map[string][]domain.Holding{"VCBF": {{Symbol: "FPT"}}},
		Failed:   map[string]string{"DCDS": "status 500"},
	}, nil)

	rec := serve(client, http.MethodPost, "/funds/holdings", []byte(`{"funds":["vcbf","DCDS","VCBF"]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"DCDS":"status 500"`)
	client.AssertExpectations(t)
}

func TestHandleHoldingsBatch_PartialOnCancel(t *testing.T) {
	client := &mockMarketData{}
	client.On("FetchHoldingsBatch", mock.Anything, []string{"VCBF", "DCDS"}).Return(&marketdata.BatchResult{
		Holdings: map[string][]domain.Holding{"VCBF": {{Symbol: "FPT"}}},
	}, context.Canceled)

	rec := serve(client, http.MethodPost, "/funds/holdings", []byte(`{"funds":["VCBF","DCDS"]}`))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHoldingsBatch_BadRequests(t *testing.T) {
	many := make([]string, maxBatchFunds+1)
	for i := range many {
		many[i] = "F" + string(rune('A'+i%26)) + string(rune('A'+i/26))
	}
	tooMany, _ := json.Marshal(batchRequest{Funds: many})

	for name, body := range map[string][]byte{
		"invalid json": []byte(`{`),
		"empty":        []byte(`{"funds":[" "]}`),
		"too many":     tooMany,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(&mockMarketData{}, http.MethodPost, "/funds/holdings", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleOwnershipAndValuation(t *testing.T) {
	client := &mockMarketData{}
	client.On("FetchOwnership", mock.Anything, "VNM").
		Return([]domain.OwnershipEntry{{Symbol: "VNM", Holder: "SCIC", OwnershipPct: 36}}, nil)
	client.On("FetchValuationEstimates", mock.Anything, "VNM").
		Return([]domain.ValuationEstimate{{Symbol: "VNM", Firm: "SSI", TargetPrice: 80000}}, nil)

	rec := serve(client, http.MethodGet, "/companies/vnm/ownership", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"holder":"SCIC"`)

	rec = serve(client, http.MethodGet, "/companies/VNM/valuation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"target_price":80000`)
}
