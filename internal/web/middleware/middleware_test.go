package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/fieldform/internal/config"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		exempt func(*http.Request) bool
		header map[string]string
		want   int
	}{
		{
			name: "disabled",
			cfg:  config.SecurityConfig{RequireAPIKey: false},
			want: http.StatusOK,
		},
		{
			name: "missing key",
			cfg:  config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			want: http.StatusUnauthorized,
		},
		{
			name:   "header key",
			cfg:    config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}},
			header: map[string]string{"X-API-Key": "k2"},
			want:   http.StatusOK,
		},
		{
			name:   "bearer key",
			cfg:    config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			header: map[string]string{"Authorization": "Bearer k1"},
			want:   http.StatusOK,
		},
		{
			name:   "wrong key",
			cfg:    config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			header: map[string]string{"X-API-Key": "nope"},
			want:   http.StatusForbidden,
		},
		{
			name:   "exempt request without key",
			cfg:    config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			exempt: func(*http.Request) bool { return true },
			want:   http.StatusOK,
		},
		{
			name:   "exemption declined",
			cfg:    config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			exempt: func(*http.Request) bool { return false },
			want:   http.StatusUnauthorized,
		},
		{
			name:   "no keys configured",
			cfg:    config.SecurityConfig{RequireAPIKey: true},
			header: map[string]string{"X-API-Key": "k1"},
			want:   http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := APIKeyAuth(&cfg, tt.exempt)(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{
			name:       "untrusted source keeps address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.168.1.5:4000",
			realIP:     "1.2.3.4",
			want:       "192.168.1.5:4000",
		},
		{
			name:       "trusted source uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4000",
			realIP:     "1.2.3.4",
			want:       "1.2.3.4",
		},
		{
			name:       "trusted single address uses first forwarded",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:5555",
			forwarded:  "5.6.7.8, 10.0.0.1",
			want:       "5.6.7.8",
		},
		{
			name:       "invalid header ignored",
			trusted:    []string{"127.0.0.1/32"},
			remoteAddr: "127.0.0.1:5555",
			realIP:     "not-an-ip",
			want:       "127.0.0.1:5555",
		},
		{
			name:       "bad CIDR skipped",
			trusted:    []string{"garbage"},
			remoteAddr: "127.0.0.1:5555",
			realIP:     "1.2.3.4",
			want:       "127.0.0.1:5555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerCapturesResponse(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{http.StatusOK, slog.LevelInfo},
		{http.StatusFound, slog.LevelInfo},
		{http.StatusBadRequest, slog.LevelWarn},
		{http.StatusTooManyRequests, slog.LevelWarn},
		{http.StatusInternalServerError, slog.LevelError},
	}
	for _, tt := range tests {
		if got := levelFor(tt.status); got != tt.want {
			t.Errorf("levelFor(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
