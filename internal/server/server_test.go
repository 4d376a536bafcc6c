package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaanHessen/rollwright/internal/bruteforce"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
	"github.com/DaanHessen/rollwright/internal/roller"
	"github.com/DaanHessen/rollwright/internal/store"
)

type memPresets struct{ m map[string]string }

func (p *memPresets) Upsert(_ context.Context, name, expression string) error {
	p.m[name] = expression
	return nil
}

func (p *memPresets) List(context.Context) ([]store.Preset, error) {
	var out []store.Preset
	for n, e := range p.m {
		out = append(out, store.Preset{Name: n, Expression: e})
	}
	return out, nil
}

func (p *memPresets) Get(_ context.Context, name string) (store.Preset, error) {
	e, ok := p.m[name]
	if !ok {
		return store.Preset{}, store.ErrNotFound
	}
	return store.Preset{Name: name, Expression: e}, nil
}

func (p *memPresets) Delete(_ context.Context, name string) error {
	if _, ok := p.m[name]; !ok {
		return store.ErrNotFound
	}
	delete(p.m, name)
	return nil
}

func newTestServer(t *testing.T, presets roller.PresetStore) http.Handler {
	t.Helper()
	seed, err := rng.NewSeed("server-tests")
	require.NoError(t, err)
	svc := roller.NewService(roller.Options{
		Seed:      seed,
		Limits:    prob.DefaultLimits(),
		Sampling:  bruteforce.Options{Budget: 20 * time.Millisecond, Workers: 2, MinSamples: 1000, MaxSamples: 20_000},
		CacheSize: 8,
		CacheTTL:  time.Minute,
		Presets:   presets,
	})
	return NewServer(0, "test", svc).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthzAndVersion(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/version", "")
	assert.JSONEq(t, `{"version":"test"}`, rec.Body.String())
}

func TestRollEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/roll?expr=2d6%2B3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res roller.RollResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "2d6+3", res.Expression)
	assert.GreaterOrEqual(t, res.Value, 5)
	assert.LessOrEqual(t, res.Value, 15)
	assert.NotEmpty(t, res.Trace)
	assert.Equal(t, res.RequestID, rec.Header().Get(HeaderRequestID))
}

func TestRollUsesClientRequestID(t *testing.T) {
	h := newTestServer(t, nil)
	id := uuid.NewString()
	values := map[int]bool{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/roll?expr=10d100", nil)
		req.Header.Set(HeaderRequestID, id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var res roller.RollResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		values[res.Value] = true
	}
	// same request id, same stream
	assert.Len(t, values, 1)
}

func TestRollErrors(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/roll", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrMsgMissingExpression, decodeError(t, rec))

	rec = do(t, h, http.MethodGet, "/v1/roll?expr=1d0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec))

	rec = do(t, h, http.MethodGet, "/v1/roll?expr=nosuch(1)", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDistEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/dist?expr=2d6&target=7", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res roller.DistResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 7.0, res.Mean, 1e-9)
	assert.Len(t, res.Masses, 11)
	assert.InDelta(t, 21.0/36, res.AtLeast, 1e-9)
	require.NotNil(t, res.Target)
	assert.Equal(t, 7, *res.Target)

	rec = do(t, h, http.MethodGet, "/v1/dist?expr=2d6&target=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrMsgBadTarget, decodeError(t, rec))
}

func TestFunctionsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/v1/functions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res FunctionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Functions)
}

func TestPersistenceEndpointsWithoutStore(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/presets/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPresetEndpoints(t *testing.T) {
	h := newTestServer(t, &memPresets{m: map[string]string{}})

	rec := do(t, h, http.MethodPut, "/v1/presets/smite", `{"expression":"2d8"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/presets/smite", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/presets/bad-name", `{"expression":"d4"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/presets/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smite")

	rec = do(t, h, http.MethodGet, "/v1/roll?expr=%40smite", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/presets/smite", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/presets/smite", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/roll?expr=%40smite", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	do(t, h, http.MethodGet, "/v1/roll?expr=d20", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rollwright_rolls_total")
	assert.Contains(t, rec.Body.String(), `path="/v1/roll"`)
}
