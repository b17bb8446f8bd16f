package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tracc-api/internal/cache"
	"tracc-api/internal/handler"
	"tracc-api/internal/repository"
	"tracc-api/internal/service"
	"tracc-api/internal/stock"
	"tracc-api/pkg/uid"
)

// tickingClock returns a later instant on every call so that records
// created by consecutive requests have distinct timestamps.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := repository.NewMemoryStore()
	mem := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	clk := &tickingClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	rules := stock.DefaultRules()
	snapshots := cache.NewSnapshotCache(mem, time.Minute, log)

	silos := service.NewSiloService(store, snapshots, clk.Now, log)
	inbound := service.NewInboundService(store, silos, rules, clk.Now, log)
	outbound := service.NewOutboundService(store, silos, rules, clk.Now, log)
	batch := service.NewBatchService(store, silos, rules, clk.Now, log)
	reports := service.NewReportService(silos, repository.NewMemoryReportRepository(10), clk.Now, log)

	srv := httptest.NewServer(New(Config{
		Handler:         handler.New(store),
		SiloHandler:     handler.NewSiloHandler(silos, outbound),
		InboundHandler:  handler.NewInboundHandler(inbound),
		OutboundHandler: handler.NewOutboundHandler(outbound, batch),
		ReportHandler:   handler.NewReportHandler(reports, nil),
		AdminHandler:    handler.NewAdminHandler(store, snapshots, "memory"),
		Logger:          log,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func createSilo(t *testing.T, srv *httptest.Server, id, capacity string) {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/v1/silos", map[string]interface{}{
		"id": id, "name": "Silo " + id, "capacity_kg": capacity,
	})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)
}

func receive(t *testing.T, srv *httptest.Server, siloID, qty string) string {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/v1/inbound", map[string]interface{}{
		"silo_id": siloID, "quantity_kg": qty, "product": "Durum wheat",
		"lot_supplier": "SUP-1", "lot_tf": "TF-1", "cleaned": true,
	})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	var rec struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	return rec.ID
}

func TestHealthAndReady(t *testing.T) {
	srv := newServer(t)

	status, env := call(t, srv, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = call(t, srv, http.MethodGet, "/api/v1/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"store"`)
}

func TestNotFoundRoute(t *testing.T) {
	srv := newServer(t)
	status, env := call(t, srv, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestStockFlow(t *testing.T) {
	srv := newServer(t)
	createSilo(t, srv, "s1", "500")
	first := receive(t, srv, "s1", "100")
	receive(t, srv, "s1", "200")

	status, env := call(t, srv, http.MethodGet, "/api/v1/silos/s1/fifo?quantity=150", nil)
	require.Equal(t, http.StatusOK, status)
	var preview struct {
		Items []struct {
			InboundID  string `json:"inbound_id"`
			QuantityKg string `json:"quantity_kg"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	require.Len(t, preview.Items, 2)
	assert.Equal(t, first, preview.Items[0].InboundID)
	assert.Equal(t, "100", preview.Items[0].QuantityKg)
	assert.Equal(t, "50", preview.Items[1].QuantityKg)

	status, env = call(t, srv, http.MethodPost, "/api/v1/outbound", map[string]interface{}{
		"silo_id": "s1", "quantity_kg": "150", "operator_name": "Mario",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	status, env = call(t, srv, http.MethodGet, "/api/v1/silos/s1", nil)
	require.Equal(t, http.StatusOK, status)
	var snap struct {
		CurrentLevel   string            `json:"current_level"`
		AvailableItems []json.RawMessage `json:"available_items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "150", snap.CurrentLevel)
	assert.Len(t, snap.AvailableItems, 1)

	status, env = call(t, srv, http.MethodGet, "/api/v1/silos/s1?at=2000-01-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "0", snap.CurrentLevel)

	status, env = call(t, srv, http.MethodGet, "/api/v1/outbound?silo_id=s1", nil)
	require.Equal(t, http.StatusOK, status)
	var records []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Len(t, records, 1)
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t)
	createSilo(t, srv, "s1", "500")
	receive(t, srv, "s1", "400")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"capacity", http.MethodPost, "/api/v1/inbound",
			map[string]interface{}{"silo_id": "s1", "quantity_kg": "150", "product": "Durum wheat"},
			http.StatusUnprocessableEntity, "BUSINESS_RULE"},
		{"insufficient", http.MethodPost, "/api/v1/outbound",
			map[string]interface{}{"silo_id": "s1", "quantity_kg": "401", "operator_name": "Mario"},
			http.StatusUnprocessableEntity, "BUSINESS_RULE"},
		{"validation", http.MethodPost, "/api/v1/inbound",
			map[string]interface{}{"silo_id": "s1", "quantity_kg": "0", "product": "Durum wheat"},
			http.StatusBadRequest, "VALIDATION_ERROR"},
		{"allocation preview", http.MethodGet, "/api/v1/silos/s1/fifo?quantity=400.5", nil,
			http.StatusConflict, "ALLOCATION_ERROR"},
		{"unknown silo", http.MethodGet, "/api/v1/silos/zz", nil,
			http.StatusNotFound, "NOT_FOUND"},
		{"bad json", http.MethodPost, "/api/v1/outbound",
			map[string]interface{}{"silo": "s1"},
			http.StatusBadRequest, "BAD_REQUEST"},
		{"bad time", http.MethodGet, "/api/v1/silos/s1?at=yesterday", nil,
			http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestBatchWithdrawal(t *testing.T) {
	srv := newServer(t)
	createSilo(t, srv, "s1", "1000")
	createSilo(t, srv, "s2", "1000")
	x := receive(t, srv, "s1", "80")
	y := receive(t, srv, "s2", "30")

	status, env := call(t, srv, http.MethodPost, "/api/v1/outbound/batch", map[string]interface{}{
		"operator_name": "Mario",
		"selections": []map[string]interface{}{
			{"silo_id": "s1", "inbound_id": x, "withdraw_quantity": "50"},
			{"silo_id": "s2", "inbound_id": y, "withdraw_quantity": "30"},
		},
	})
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	var result struct {
		BatchID string `json:"batch_id"`
		Records []struct {
			BatchID string `json:"batch_id"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, uid.IsValid(result.BatchID))
	require.Len(t, result.Records, 2)
	assert.Equal(t, result.BatchID, result.Records[1].BatchID)
}

func TestDeleteAndReports(t *testing.T) {
	srv := newServer(t)
	createSilo(t, srv, "s1", "1000")
	createSilo(t, srv, "s2", "1000")
	id := receive(t, srv, "s1", "80")

	status, _ := call(t, srv, http.MethodDelete, "/api/v1/silos/s2", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, srv, http.MethodDelete, "/api/v1/inbound/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)

	receive(t, srv, "s1", "250")
	status, env := call(t, srv, http.MethodPost, "/api/v1/reports/run", nil)
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	status, env = call(t, srv, http.MethodGet, "/api/v1/reports?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var reports []struct {
		Silos []struct {
			LevelKg string `json:"level_kg"`
		} `json:"silos"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reports))
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Silos, 1)
	assert.Equal(t, "250", reports[0].Silos[0].LevelKg)

	status, env = call(t, srv, http.MethodGet, "/api/v1/reports/stock", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = call(t, srv, http.MethodGet, "/api/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"store_type":"memory"`)
}
