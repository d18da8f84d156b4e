package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		corsOrigin     string
		method         string
		shouldCallNext bool
	}{
		{"GET request with CORS headers", "*", http.MethodGet, true},
		{"POST request with specific origin", "https://example.com", http.MethodPost, true},
		{"OPTIONS request (preflight)", "*", http.MethodOptions, false},
		{"empty CORS origin", "", http.MethodGet, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{corsOrigin: tt.corsOrigin}

			nextCalled := false
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				assert.Equal(t, tt.corsOrigin, w.Header().Get("Access-Control-Allow-Origin"))
				w.WriteHeader(http.StatusOK)
			}

			w := httptest.NewRecorder()
			server.corsMiddleware(next)(w, httptest.NewRequest(tt.method, "/v1/scan", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.corsOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
			assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Document-Corners")
			assert.Equal(t, tt.shouldCallNext, nextCalled)
		})
	}
}

func TestServer_CORSMiddleware_KeepsErrorStatus(t *testing.T) {
	server := &Server{corsOrigin: "*"}
	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}

	w := httptest.NewRecorder()
	server.corsMiddleware(next)(w, httptest.NewRequest(http.MethodPost, "/v1/scan", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	assert.Same(t, rec, rw.Unwrap())
	rw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, rw.statusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRouteLabel(t *testing.T) {
	mux := http.NewServeMux()
	var label string
	mux.HandleFunc("/v1/scan", func(w http.ResponseWriter, r *http.Request) { label = routeLabel(r) })

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/scan", nil))
	assert.Equal(t, "/v1/scan", label)

	assert.Equal(t, "/raw", routeLabel(httptest.NewRequest(http.MethodGet, "/raw", nil)))
}

func TestServer_RateLimitMiddleware(t *testing.T) {
	t.Run("disabled passes through", func(t *testing.T) {
		server := &Server{}
		calls := 0
		h := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) { calls++ })
		for range 5 {
			h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/scan", nil))
		}
		assert.Equal(t, 5, calls)
	})

	t.Run("minute limit answers 429", func(t *testing.T) {
		server := &Server{rateLimiter: NewRateLimiter(1, 0, 0, 0)}
		h := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/v1/scan", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/v1/scan", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body rateLimitResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "rate_limit_exceeded", body.Error)
	})

	t.Run("data quota answers 429", func(t *testing.T) {
		server := &Server{rateLimiter: NewRateLimiter(0, 0, 0, 10)}
		h := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(strings.Repeat("x", 64))))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "data", w.Header().Get("X-Quota-Type"))
		var body rateLimitResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "quota_exceeded", body.Error)
		assert.NotEmpty(t, body.Resets)
	})
}

func TestServer_HandleRateLimitError_Unknown(t *testing.T) {
	w := httptest.NewRecorder()
	(&Server{}).handleRateLimitError(w, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"single forwarded", map[string]string{"X-Forwarded-For": " 198.51.100.2 "}, "10.0.0.2:1234", "198.51.100.2"},
		{"real ip", map[string]string{"X-Real-IP": "192.0.2.9"}, "10.0.0.2:1234", "192.0.2.9"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func BenchmarkServer_CORSMiddleware(b *testing.B) {
	server := &Server{corsOrigin: "*"}
	h := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for range b.N {
		h(httptest.NewRecorder(), req)
	}
}
