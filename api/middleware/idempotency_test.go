package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

type memoryReplayStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryReplayStore() *memoryReplayStore {
	return &memoryReplayStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryReplayStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryReplayStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryReplayStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryReplayStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

const approvePath = "/api/admin/v1/applications/0b8f3c2e-5d1a-4b7e-9c6f-2a4d8e1f7b30/approve"

func postWithKey(path, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func TestReplayTTL(t *testing.T) {
	lockerID := "6e2a9d41-7c3b-4f58-a1e0-9b5c3d7f2e84"
	tests := []struct {
		name   string
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{"approve", http.MethodPost, approvePath, decisionReplayTTL, true},
		{"reject", http.MethodPost, "/api/admin/v1/applications/abc/reject", decisionReplayTTL, true},
		{"submit", http.MethodPost, "/api/v1/applications", standardReplayTTL, true},
		{"submit trailing slash", http.MethodPost, "/api/v1/applications/", standardReplayTTL, true},
		{"admin assign", http.MethodPost, "/api/admin/v1/lockers/" + lockerID + "/assign", standardReplayTTL, true},
		{"user release", http.MethodPost, "/api/v1/lockers/" + lockerID + "/release", standardReplayTTL, true},
		{"nested segment is not a wildcard", http.MethodPost, "/api/v1/lockers/a/b/release", 0, false},
		{"cancel", http.MethodPost, "/api/v1/applications/abc/cancel", 0, false},
		{"list", http.MethodGet, "/api/v1/applications", 0, false},
		{"login", http.MethodPost, "/api/v1/auth/login", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttl, ok := replayTTL(tt.method, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ttl)
		})
	}
}

func TestIdempotencyRequiresKey(t *testing.T) {
	called := false
	handler := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, postWithKey("/api/v1/auth/register", "", `{"phone":"1"}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, called)
}

func TestIdempotencyPassesThroughUnlistedRoutes(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, postWithKey("/api/v1/auth/login", "", `{}`))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"approved"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey(approvePath, "k1", `{"note":"ok"}`))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey(approvePath, "k1", `{"note":"ok"}`))

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.JSONEq(t, `{"status":"approved"}`, second.Body.String())
	assert.Equal(t, 1, calls)

	for key, ttl := range store.ttls {
		assert.Equal(t, decisionReplayTTL, ttl, key)
	}
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	handler := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey(approvePath, "k2", `{"note":"a"}`))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, postWithKey(approvePath, "k2", `{"note":"b"}`))

	require.Equal(t, http.StatusConflict, resp.Code)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeIdempotency), payload.Error.Code)
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newMemoryReplayStore()
	var nested *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if nested == nil {
			nested = httptest.NewRecorder()
			handler.ServeHTTP(nested, postWithKey(approvePath, "k3", `{}`))
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey(approvePath, "k3", `{}`))

	require.NotNil(t, nested)
	assert.Equal(t, http.StatusConflict, nested.Code)
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey(approvePath, "k4", `{}`))
	assert.Equal(t, http.StatusServiceUnavailable, first.Code)
	assert.Empty(t, store.data)

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, postWithKey(approvePath, "k4", `{}`))
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Equal(t, 2, calls)
}
