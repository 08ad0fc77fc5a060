package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsewatch/internal/cache"
	"pulsewatch/internal/config"
	"pulsewatch/internal/core"
	"pulsewatch/internal/storage"
)

const testSecret = "test-secret-with-enough-entropy"

type testServer struct {
	handler http.Handler
	engine  *core.Engine
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Addr: "127.0.0.1:0",
			JWT:  config.JWTConfig{Secret: testSecret, Issuer: "identity.test"},
		},
		Storage: config.StorageConfig{
			Driver:          "sqlite",
			DSN:             filepath.Join(t.TempDir(), "api.db"),
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
		},
		Scheduler: config.SchedulerConfig{WorkerCount: 2, TickInterval: time.Hour, InflightTTL: 30 * time.Second},
		Checks: config.ChecksConfig{HTTP: config.HTTPDefaultsConfig{
			Timeout:      2 * time.Second,
			UserAgent:    "Pulsewatch-Test/1.0",
			MaxRedirects: 10,
		}},
		Monitors: config.MonitorsConfig{MinInterval: 10 * time.Second, MaxInterval: 24 * time.Hour},
		Stats:    config.StatsConfig{CacheTTL: time.Minute, DefaultWindow: 24 * time.Hour},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := newTestConfig(t)

	store, err := storage.New(cfg.Storage)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := cache.NewMemory()
	engine := core.NewEngine(cfg, store, c)
	srv := NewServer(cfg.Server, engine, store, c)

	return &testServer{handler: srv.Handler(), engine: engine}
}

func signToken(t *testing.T, subject string, mutate ...func(*jwt.RegisteredClaims)) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "identity.test",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	for _, m := range mutate {
		m(&claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Pagination *struct {
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"pagination"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("Ping needs no token", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/ping", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "pong")
	})

	t.Run("Request id is assigned and echoed", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/ping", "", nil)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		rec = httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("Health is degraded while the engine is stopped", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})

	t.Run("Health is healthy with a running engine", func(t *testing.T) {
		require.NoError(t, s.engine.Start(context.Background()))
		t.Cleanup(s.engine.Stop)

		rec, _ := s.do(t, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"healthy"`)
	})

	t.Run("Unknown route uses the envelope", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"Missing token": "",
		"Garbage token": "not-a-jwt",
		"Wrong secret": func() string {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}).SignedString([]byte("other-secret"))
			return tok
		}(),
		"Expired token": signToken(t, "alice", func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		}),
		"Wrong issuer": signToken(t, "alice", func(c *jwt.RegisteredClaims) {
			c.Issuer = "someone-else"
		}),
		"Missing subject": signToken(t, ""),
	}

	for name, token := range cases {
		t.Run(name+" is rejected", func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "AUTHENTICATION_ERROR", env.Error.Code)
		})
	}

	t.Run("Valid token resolves the owner", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/auth/me", signToken(t, "alice"), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		identity := decode[map[string]any](t, env.Data)
		assert.Equal(t, "alice", identity["owner_id"])
		assert.Equal(t, "identity.test", identity["issuer"])
	})
}
