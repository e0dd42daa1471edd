package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/logger"
	"github.com/pathik-bd/pathik-api/internal/service"
)

func TestFailStatusMapping(t *testing.T) {
	logger.Discard()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "reason", Reason: "is required"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("get tour: %w", service.ErrNotFound), http.StatusNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"already processed", fmt.Errorf("approve: %w", service.ErrAlreadyProcessed), http.StatusConflict},
		{"persistence", &service.PersistenceError{Op: "x", Err: errors.New("driver: bad connection")}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if err := fail(c, tc.err); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("missing error message")
			}
			if tc.want == http.StatusInternalServerError && body["error"] != "internal error" {
				t.Fatalf("internal detail leaked: %q", body["error"])
			}
			if tc.want == http.StatusBadRequest && body["field"] != "reason" {
				t.Fatalf("field = %q", body["field"])
			}
		})
	}
}

func TestPage(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/?limit=5&offset=-3", nil), httptest.NewRecorder())
	limit, offset := page(c)
	if limit != 5 || offset != 0 {
		t.Fatalf("page = %d, %d", limit, offset)
	}
}

func TestDirectoryRejectsUnknownCategory(t *testing.T) {
	h := NewContributionHandler(nil)
	for _, cat := range []string{"metro", "guides"} {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("category")
		c.SetParamValues(cat)
		if err := h.Directory(c); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", cat, rec.Code)
		}
	}
}
