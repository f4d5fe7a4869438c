package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedEngine(limit int, window time.Duration) *gin.Engine {
	r := gin.New()
	rl := middlewares.NewRateLimiter(limit, window)

	r.GET("/ping", rl.RateLimiterMiddleware(middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return r
}

func ping(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksAfterBudget(t *testing.T) {
	r := limitedEngine(2, time.Minute)

	for i := 0; i < 2; i++ {
		if w := ping(r, "203.0.113.7:4000"); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: got %d, want 204", i+1, w.Code)
		}
	}

	w := ping(r, "203.0.113.7:4000")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429, body=%s", w.Code, w.Body.String())
	}

	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	r := limitedEngine(1, time.Minute)

	if w := ping(r, "203.0.113.7:4000"); w.Code != http.StatusNoContent {
		t.Fatalf("first client: got %d, want 204", w.Code)
	}

	if w := ping(r, "203.0.113.7:4000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client over budget: got %d, want 429", w.Code)
	}

	// a different client has its own window
	if w := ping(r, "198.51.100.9:4000"); w.Code != http.StatusNoContent {
		t.Fatalf("second client: got %d, want 204", w.Code)
	}
}

func TestRequireJSONContentType(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json", http.MethodPost, "application/json", http.StatusNoContent},
		{"json_with_charset", http.MethodPost, "application/json; charset=utf-8", http.StatusNoContent},
		{"plain_text", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get_without_body", http.MethodGet, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/x", nil)

			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}
