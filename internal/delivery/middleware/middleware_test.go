package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adv-service/pkg/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/adv/1", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", codes[2])
	}

	// other clients have their own bucket
	req := httptest.NewRequest(http.MethodGet, "/adv/1", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected a different client to pass, got %d", rec.Code)
	}

	// tokens refill over time
	now = now.Add(time.Second)
	req = httptest.NewRequest(http.MethodGet, "/adv/1", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected request after refill to pass, got %d", rec.Code)
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = now.Add(rl.idleTTL + time.Minute)
	rl.allow("10.0.0.2")

	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("Expected idle client to be evicted")
	}
	if len(rl.clients) != 1 {
		t.Errorf("Expected 1 tracked client, got %d", len(rl.clients))
	}
}

func TestRateLimiter_KeysOnConnectionAddress(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	h := PeerAddr(chimw.RealIP(rl.Middleware(okHandler())))

	for i, forwarded := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodGet, "/adv/1", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		want := http.StatusTooManyRequests
		if i == 0 {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Errorf("Request %d expected %d, got %d", i+1, want, rec.Code)
		}
	}

	if len(rl.clients) != 1 {
		t.Errorf("Expected 1 tracked client, got %d", len(rl.clients))
	}
	if _, ok := rl.clients["10.0.0.1"]; !ok {
		t.Errorf("Expected bucket keyed on connection address, got %v", rl.clients)
	}
}

func TestAccessLog(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	loggers, err := logger.New("info", &infoBuf, &errBuf)
	if err != nil {
		t.Fatalf("Failed to create loggers: %v", err)
	}

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	AccessLog(loggers)(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/adv/1", nil))
	AccessLog(loggers)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/adv/2", nil))

	if !strings.Contains(infoBuf.String(), `"path":"/adv/1"`) || !strings.Contains(infoBuf.String(), `"status":200`) {
		t.Errorf("Expected info access log for /adv/1, got: %s", infoBuf.String())
	}
	if !strings.Contains(errBuf.String(), `"path":"/adv/2"`) || !strings.Contains(errBuf.String(), `"status":500`) {
		t.Errorf("Expected error access log for /adv/2, got: %s", errBuf.String())
	}
}
