package records

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	cases := map[string]string{
		MountPath("/admin"):                          "/admin/api/records",
		MountPath("admin"):                           "/admin/api/records",
		MountPath("/admin/", WithRoutePath("api/r")): "/admin/api/r",
		MountPath(""):                                "/api/records",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("unexpected mount path: %q, want %q", got, want)
		}
	}
}

func TestRegisterRoutes_RegistersCollectionAndItem(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/admin", WithRecords(sample()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/records" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	req := httptest.NewRequest(http.MethodGet, pattern+"?q=ada&limit=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, pattern+"/grace", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for item, got %d", rec.Code)
	}
	payload := decodeResponse(t, rec)
	if len(payload.Data) != 1 || payload.Data[0]["id"] != "grace" {
		t.Fatalf("unexpected item payload: %#v", payload)
	}

	req = httptest.NewRequest(http.MethodGet, pattern+"/nobody", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown item, got %d", rec.Code)
	}
	if payload := decodeResponse(t, rec); payload.Error == "" {
		t.Fatalf("expected error body for unknown item")
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}
