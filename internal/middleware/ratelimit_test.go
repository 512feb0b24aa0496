package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterThrottlesPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/competitions", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if send("user-1") != http.StatusOK || send("user-1") != http.StatusOK {
		t.Fatal("burst requests should pass")
	}
	if send("user-1") != http.StatusTooManyRequests {
		t.Fatal("third request should be throttled")
	}
	// A different principal has its own bucket.
	if send("user-2") != http.StatusOK {
		t.Fatal("other users should not share the bucket")
	}
}
