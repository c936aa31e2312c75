package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := healthHandler()(c); err != nil {
		t.Fatalf("healthz: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Version != Version {
		t.Errorf("status/version = %q/%q", resp.Status, resp.Version)
	}
	for _, svc := range []string{"llm", "newsapi", "agent"} {
		if resp.Services[svc] != "ok" {
			t.Errorf("service %s = %q, want ok", svc, resp.Services[svc])
		}
	}
}
