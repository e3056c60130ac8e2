package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "same-origin", rr.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, "same-origin", rr.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Equal(t, "max-age=15552000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
	assert.Equal(t, "0", rr.Header().Get("X-XSS-Protection"))
}

func TestStaticHeaders_OverrideResourcePolicy(t *testing.T) {
	handler := SecurityHeaders(StaticHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil))

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "cross-origin", rr.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}
