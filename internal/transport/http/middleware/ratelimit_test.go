package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	assert.Equal(t, "192.168.1.1", clientIP(req))
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-Ip", "5.6.7.8")
	assert.Equal(t, "192.168.1.1", clientIP(req))
}

func TestClientIP_BareAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.10.11.12"
	assert.Equal(t, "9.10.11.12", clientIP(req))
}

func limitedCodes(h http.Handler, remoteAddr string, forwardedFor []string) []int {
	codes := make([]int, 0, len(forwardedFor))
	for _, xff := range forwardedFor {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = remoteAddr
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	return codes
}

func TestLimit_RejectsAfterBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)
	h := rl.Limit(http.HandlerFunc(okHandler))

	assert.Equal(t,
		[]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		limitedCodes(h, "7.7.7.7:1000", []string{"", "", ""}))

	// A different client has its own bucket.
	assert.Equal(t, []int{http.StatusOK}, limitedCodes(h, "8.8.8.8:1000", []string{""}))
}

func TestLimit_RotatingForwardedForDoesNotBypass(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)
	h := rl.Limit(http.HandlerFunc(okHandler))

	assert.Equal(t,
		[]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		limitedCodes(h, "7.7.7.7:1000", []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}))
}

func TestLimit_BehindTrustedProxy(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 1)
	h := chimiddleware.RealIP(rl.Limit(http.HandlerFunc(okHandler)))

	// Same proxy address, distinct forwarded clients: each gets its own bucket.
	assert.Equal(t,
		[]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		limitedCodes(h, "10.0.0.1:1000", []string{"1.1.1.1", "2.2.2.2", "1.1.1.1"}))
}
