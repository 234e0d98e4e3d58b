package serverhttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"quotecraft/internal/approval"
	"quotecraft/internal/compare/handler"
	"quotecraft/internal/compare/service"
	"quotecraft/internal/compare/store"
	"quotecraft/internal/config"
	"quotecraft/internal/erp"
	"quotecraft/internal/middleware"
	"quotecraft/internal/policy"
)

func testRouter() http.Handler {
	logger := zerolog.Nop()
	st := store.NewMemory()
	po := erp.NewMock("TEST", logger)
	api := handler.New(handler.Deps{
		Engine:    service.NewEngine(service.DefaultOptions(), policy.New(policy.DefaultThresholds(), nil), logger),
		Store:     st,
		Approvals: approval.NewService(st, po, nil, logger),
		ERP:       po,
		Logger:    logger,
	})
	cfg := config.Config{ServiceName: "quotecraft-test", MaxUploadMB: 1, AllowOrigins: []string{"*"}}
	return NewRouter(cfg, logger, api)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route not found")
}

func TestBodyLimit(t *testing.T) {
	big := `{"boq":{"id":"` + strings.Repeat("x", 2<<20) + `"}}`
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/comparison", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAPIMounted(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kpi", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalProcessed":0`)
}
