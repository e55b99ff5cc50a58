package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(n int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := NewLimiter(RateLimitConfig{Max: n, Window: time.Minute})
	l.now = clock.now
	return l, clock
}

func hit(h http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLimiter_Headers(t *testing.T) {
	l, _ := newTestLimiter(3)
	h := l.Middleware()(okHandler())

	for i, want := range []string{"2", "1", "0"} {
		w := hit(h, "192.168.1.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, want, w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "1772359260", w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestLimiter_Rejects(t *testing.T) {
	l, clock := newTestLimiter(2)
	h := l.Middleware()(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:2").Code)

	clock.advance(20 * time.Second)
	w := hit(h, "10.0.0.1:3")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "40", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":429,"kind":"rate_limited","message":"Too many requests"}`, w.Body.String())

	// Other clients have their own budget.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1").Code)
}

func TestLimiter_Sliding(t *testing.T) {
	l, clock := newTestLimiter(2)

	_, _, ok := l.take("k")
	require.True(t, ok)
	_, _, ok = l.take("k")
	require.True(t, ok)

	// At the start of the next window the previous one still weighs fully.
	clock.advance(time.Minute)
	_, _, ok = l.take("k")
	assert.False(t, ok)

	// Halfway through, the previous window counts for one request.
	clock.advance(30 * time.Second)
	remaining, _, ok := l.take("k")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	_, _, ok = l.take("k")
	assert.False(t, ok)

	// Two windows later nothing is carried over.
	clock.advance(2 * time.Minute)
	remaining, _, ok = l.take("k")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(5)
	l.take("old")
	clock.advance(90 * time.Second)
	l.take("fresh")

	l.Sweep()
	assert.Len(t, l.windows, 2, "previous window still counts")

	clock.advance(time.Minute)
	l.Sweep()
	assert.Len(t, l.windows, 1)
	assert.Contains(t, l.windows, "fresh")
}

func TestClientIP(t *testing.T) {
	for _, tt := range []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "RemoteAddr", remote: "1.2.3.4:5678", want: "1.2.3.4"},
		{name: "NoPort", remote: "1.2.3.4", want: "1.2.3.4"},
		{
			name:    "ForwardedFor",
			headers: map[string]string{"X-Forwarded-For": " 9.9.9.9 , 10.0.0.1"},
			remote:  "1.2.3.4:1",
			want:    "9.9.9.9",
		},
		{
			name:    "RealIP",
			headers: map[string]string{"X-Real-IP": "8.8.8.8"},
			remote:  "1.2.3.4:1",
			want:    "8.8.8.8",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
