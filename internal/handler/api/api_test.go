package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/repository"
	icache "PriceOpt/internal/service/cache"
	"PriceOpt/internal/service/progress"
	"PriceOpt/internal/service/ratelimit"
	"PriceOpt/internal/usecase"
	"PriceOpt/pkg/cache"
	"PriceOpt/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordPublished(string)             {}
func (noopMetrics) RecordError(string)                 {}
func (noopMetrics) RecordOptimalPrice(string, float64) {}
func (noopMetrics) RecordElasticity(string, float64)   {}
func (noopMetrics) RecordLatency(string, float64)      {}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	e *echo.Echo
}

func newTestServer(t *testing.T, uploadCapacity int) *testServer {
	t.Helper()
	lgr := logger.Nop()
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mc.Close() })
	repo := repository.NewDatasetRepository(mc, time.Hour)
	broker := progress.NewBroker(8)

	datasets := usecase.NewDatasets(repo, lgr, 3)
	enricher := usecase.NewEnrichment(repo, repository.NoopAnalysisStore{}, broker, noopMetrics{}, lgr, 2, 3)

	router := NewRouter(
		NewPricingHandler(lgr, usecase.NewPricing(noopMetrics{}, 0.3)),
		NewDataHandler(lgr, datasets, enricher, nil, icache.NewTTLCache(), ratelimit.New(uploadCapacity, 0), DataHandlerConfig{MaxUploadBytes: 1 << 20}),
		NewProgressHandler(lgr, broker),
		NewChatHandler(lgr, usecase.NewChat(repository.NewChatRepository(mc, time.Hour, 50), lgr)),
		NewStatusHandler("test", repo, map[string]Checker{
			"store": CheckFunc(mc.Ping),
		}),
	)
	e := echo.New()
	router.RegisterRoutes(e)
	return &testServer{e: e}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) upload(t *testing.T, csv string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestOptimizePrice(t *testing.T) {
	s := newTestServer(t, 10)
	rec, env := s.do(t, http.MethodPost, "/api/optimize-price", map[string]interface{}{
		"product_id": "sku-1", "current_price": 15, "cost": 10, "elasticity": -2, "demand_factor": 400,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.OptimizePriceResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 20.0, res.OptimalPrice)
	assert.Equal(t, 50.0, res.ProfitMarginPct)
	assert.Equal(t, 33.33, res.DeltaPct)
	assert.Equal(t, "Raise price 33.33% for a margin of 50.00%", res.Recommendation)
	require.NotNil(t, res.EstimatedDemand)
	assert.Equal(t, 1.0, *res.EstimatedDemand)
	assert.Equal(t, 20.0, *res.EstimatedRevenue)
}

func TestOptimizePriceValidation(t *testing.T) {
	s := newTestServer(t, 10)
	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing cost", map[string]interface{}{"current_price": 10}, "cost"},
		{"positive elasticity", map[string]interface{}{"current_price": 10, "cost": 5, "elasticity": 0.5}, "elasticity"},
		{"margin above one", map[string]interface{}{"current_price": 10, "cost": 5, "target_margin": 1.5}, "target_margin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/api/optimize-price", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, string(env.Data), `"field":"`+tc.field+`"`)
		})
	}
}

func TestOptimizePriceLinear(t *testing.T) {
	s := newTestServer(t, 10)
	rec, env := s.do(t, http.MethodPost, "/api/optimize-price-linear", map[string]interface{}{
		"current_price": 20, "alpha": 100, "beta": -2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.LinearPriceResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Valid)
	assert.Equal(t, 25.0, *res.OptimalPrice)
	assert.Equal(t, 1250.0, *res.OptimalRevenue)
	assert.Nil(t, res.R2)
	assert.Contains(t, res.Recommendation, "to maximize revenue")

	rec, _ = s.do(t, http.MethodPost, "/api/optimize-price-linear", map[string]interface{}{"current_price": 20})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/optimize-price-linear", map[string]interface{}{"alpha": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeElasticity(t *testing.T) {
	s := newTestServer(t, 10)
	rec, env := s.do(t, http.MethodPost, "/api/elasticity/compute", map[string]interface{}{
		"observations": []models.Observation{{Price: 1, Quantity: 100}, {Price: 2, Quantity: 25}, {Price: 4, Quantity: 6.25}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ElasticityResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, -2.0, *res.Elasticity)
	require.NotNil(t, res.Intercept)
	assert.InDelta(t, 4.6052, *res.Intercept, 1e-4)
	assert.Equal(t, 100.0, *res.DemandFactor)
	assert.Equal(t, models.Decrease, res.PriceRecommendation)

	rec, env = s.do(t, http.MethodPost, "/api/elasticity/compute", map[string]interface{}{"observations": []models.Observation{}})
	require.Equal(t, http.StatusOK, rec.Code)
	res = models.ElasticityResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Nil(t, res.Elasticity)
	assert.Nil(t, res.Intercept)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, models.Hold, res.PriceRecommendation)
}

func TestComputeCrossElasticity(t *testing.T) {
	s := newTestServer(t, 10)
	obs := []models.CrossObservation{
		{OwnPrice: 1, CompetitorPrice: 1, OwnQuantity: 100},
		{OwnPrice: 2, CompetitorPrice: 1, OwnQuantity: 50},
		{OwnPrice: 1, CompetitorPrice: 2, OwnQuantity: 200},
		{OwnPrice: 2, CompetitorPrice: 4, OwnQuantity: 200},
		{OwnPrice: 4, CompetitorPrice: 2, OwnQuantity: 50},
	}
	rec, env := s.do(t, http.MethodPost, "/api/elasticity/compute-cross", map[string]interface{}{"observations": obs})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.CrossElasticityResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, -1.0, *res.OwnElasticity)
	assert.Equal(t, 1.0, *res.CrossElasticity)
	require.NotNil(t, res.Intercept)
	assert.InDelta(t, 4.6052, *res.Intercept, 1e-4)
	assert.Equal(t, "substitute", res.Relationship)
}

func TestClassify(t *testing.T) {
	s := newTestServer(t, 10)
	rec, env := s.do(t, http.MethodPost, "/api/classify", map[string]interface{}{"relative_elasticity": -1.5, "relative_volume": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ProductClassification
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.TrafficGenerator, res.Role)
	assert.Equal(t, models.Decrease, res.PriceRecommendation)
	assert.NotEmpty(t, res.Strategy)
}

const salesCSV = "category,product,price,quantity\n" +
	"A,p1,1,100\n" +
	"A,p1,2,25\n" +
	"A,p1,4,6.25\n" +
	"A,p2,1,50\n" +
	"A,p2,4,25\n" +
	"A,p2,16,12.5\n"

func TestUploadEnrichExportFlow(t *testing.T) {
	s := newTestServer(t, 10)

	rec, env := s.upload(t, salesCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var up models.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &up))
	require.NotEmpty(t, up.SessionID)
	assert.Equal(t, 6, up.RowsLoaded)
	assert.Equal(t, 1, up.GroupedLevels)
	assert.Equal(t, []string{"A"}, up.GroupSample)

	base := "/api/data/" + up.SessionID
	rec, _ = s.do(t, http.MethodGet, base+"/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// export before enrichment has nothing to serve
	rec, _ = s.do(t, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, http.MethodPost, base+"/enrich", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var enr models.EnrichResponse
	require.NoError(t, json.Unmarshal(env.Data, &enr))
	require.Len(t, enr.Rows, 6)
	assert.Equal(t, "p1", enr.Rows[0].Analysis.Product)
	assert.Equal(t, 2, enr.Summary.ProductsAnalysed)

	rec, _ = s.do(t, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "enriched_"+up.SessionID+".csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "category;product;price;quantity;category_elasticity"))

	again, _ := s.do(t, http.MethodGet, base+"/export", nil)
	assert.Equal(t, rec.Body.String(), again.Body.String())

	rec, env = s.do(t, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum models.ReportSummary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 2, sum.ProductsAnalysed)
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.upload(t, "name,colour\nx,red\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.upload(t, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadRateLimited(t *testing.T) {
	s := newTestServer(t, 1)
	rec, _ := s.upload(t, salesCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = s.upload(t, salesCSV)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t, 10)
	for _, path := range []string{"/api/data/nope/groups", "/api/data/nope/report"} {
		rec, _ := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec, _ := s.do(t, http.MethodPost, "/api/data/nope/enrich", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/data/nope/enrich?async=true", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	s := newTestServer(t, 10)
	_, _ = s.upload(t, salesCSV)

	rec, env := s.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "test", st.Environment)
	assert.Equal(t, 1, st.Sessions)
	assert.Equal(t, "ok", st.Components["store"])

	rec, _ = s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, _ = s.upload(t, salesCSV)
	rec, env = s.do(t, http.MethodGet, "/api/sessions?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []string `json:"rows"`
		Total int64    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Rows, 1)
	assert.Equal(t, int64(2), list.Total)
}

func TestHealthUnavailable(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	h := NewStatusHandler("test", repository.NewDatasetRepository(mc, time.Hour), map[string]Checker{
		"clickhouse": CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestChatSessionLifecycle(t *testing.T) {
	s := newTestServer(t, 10)

	rec, env := s.do(t, http.MethodPost, "/api/chat/u-42", map[string]interface{}{"message": "what price for sku-1?"})
	require.Equal(t, http.StatusOK, rec.Code)
	var posted models.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &posted))
	assert.Equal(t, "u-42", posted.UserID)
	assert.Equal(t, 1, posted.SessionLen)
	assert.Equal(t, "what price for sku-1?", posted.MessageReceived)
	assert.Contains(t, posted.Response, "u-42")

	_, _ = s.do(t, http.MethodPost, "/api/chat/u-42", map[string]interface{}{"message": "and sku-2?"})

	rec, env = s.do(t, http.MethodGet, "/api/chat/u-42/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist models.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.Equal(t, 2, hist.MessageCount)
	require.Len(t, hist.History, 2)
	assert.Equal(t, "user", hist.History[0].Role)
	assert.Equal(t, "and sku-2?", hist.History[1].Text)

	rec, _ = s.do(t, http.MethodDelete, "/api/chat/u-42/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/chat/u-42/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist = models.ChatHistoryResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.Equal(t, 0, hist.MessageCount)
	assert.NotNil(t, hist.History)

	rec, _ = s.do(t, http.MethodPost, "/api/chat/u-42", map[string]interface{}{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
