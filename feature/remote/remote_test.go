package remote_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"scanmate/core/database"
	"scanmate/feature/importer"
	"scanmate/feature/inventory"
	"scanmate/feature/logbuffer"
	"scanmate/feature/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) *inventory.Router {
	t.Helper()
	open := func(mode inventory.Mode) *inventory.Store {
		db, err := database.Connect(database.Config{Name: database.MemoryDSN})
		require.NoError(t, err)
		s, err := inventory.NewStore(mode, db, zap.NewNop())
		require.NoError(t, err)
		return s
	}
	r := inventory.NewRouter(open(inventory.ModeStandard), open(inventory.ModeLoots))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func gzBase64(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fakeService struct {
	mux      *http.ServeMux
	mu       sync.Mutex
	apiKeys  []string
	uploaded []byte
}

func newService(t *testing.T) (*fakeService, *remote.Client) {
	t.Helper()
	fs := &fakeService{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.apiKeys = append(fs.apiKeys, r.Header.Get(remote.APIKeyHeader))
		fs.mu.Unlock()
		fs.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := remote.NewClient(remote.Config{BaseURL: srv.URL + "/", ApiKey: "k-123", TimeoutSeconds: 5}, zap.NewNop())
	require.NoError(t, err)
	return fs, client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_NotConfigured(t *testing.T) {
	_, err := remote.NewClient(remote.Config{}, nil)
	assert.ErrorIs(t, err, remote.ErrNotConfigured)

	_, err = remote.NewClient(remote.Config{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestEmployees(t *testing.T) {
	fs, client := newService(t)
	fs.mux.HandleFunc("GET /api/scanmate/7/employees", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"success": true, "employees": []map[string]any{{"id": 3, "name": "Nino"}}})
	})
	fs.mux.HandleFunc("GET /api/scanmate/8/employees", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"success": false})
	})

	got, err := client.Employees(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []remote.Employee{{ID: 3, Name: "Nino"}}, got)
	assert.Equal(t, "k-123", fs.apiKeys[0])

	got, err = client.Employees(context.Background(), 8)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDownload(t *testing.T) {
	fs, client := newService(t)
	fs.mux.HandleFunc("GET /api/scanmate/1/data/2", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"success": true, "gz_data": gzBase64(t, []map[string]any{
			{"product_id": 10, "barcode": "111", "name": "Cup", "qty": 4, "uom": "pcs", "category": "Kitchen",
				"variants":      []map[string]string{{"name": "color", "value": "white"}},
				"compare_price": 5, "sale_price": 4.5, "location": "A-1", "employee_ids": []int{2}},
		})})
	})
	fs.mux.HandleFunc("GET /api/scanmate/1/data/3", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"success": true, "gz_data": "%%% not base64"})
	})
	fs.mux.HandleFunc("GET /api/scanmate/1/data/4", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	rows, err := client.Download(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, importer.Row{
		Barcode:       "111",
		Quantity:      4,
		Name:          "Cup",
		Category:      "Kitchen",
		UnitOfMeasure: "pcs",
		Location:      "A-1",
		ComparePrice:  5,
		SalePrice:     4.5,
		Variants:      []inventory.Variant{{Name: "color", Value: "white"}},
		EmployeeIDs:   []int{2},
		ProductID:     10,
	}, rows[0])

	rows, err = client.Download(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = client.Download(context.Background(), 1, 4)
	var terr *remote.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.Status)
}

func TestImportFromRemote_UnavailableLeavesStore(t *testing.T) {
	ctx := context.Background()
	fs, client := newService(t)
	fs.mux.HandleFunc("GET /api/scanmate/5/data/9", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"success": false})
	})

	router := newRouter(t)
	loader := importer.New(router, nil, zap.NewNop())
	_, err := loader.ReplaceDataset(ctx, inventory.ModeStandard, importer.Rows{{Barcode: "keep", Quantity: 1}})
	require.NoError(t, err)

	syncer := remote.NewSyncer(client, router, loader, nil, zap.NewNop())
	res, err := syncer.ImportFromRemote(ctx, inventory.ModeStandard, 5, 9)
	require.NoError(t, err)
	assert.Zero(t, res.Imported)

	_, err = router.Store(inventory.ModeStandard).Find(ctx, "keep", nil)
	assert.NoError(t, err)
}

func TestImportFromRemote(t *testing.T) {
	ctx := context.Background()
	fs, client := newService(t)
	fs.mux.HandleFunc("GET /api/scanmate/5/data/9", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"success": true, "gz_data": gzBase64(t, []map[string]any{
			{"barcode": "1", "qty": 2, "employee_ids": 9},
			{"barcode": "", "qty": 1},
		})})
	})

	router := newRouter(t)
	syncer := remote.NewSyncer(client, router, importer.New(router, nil, zap.NewNop()), nil, zap.NewNop())

	res, err := syncer.ImportFromRemote(ctx, inventory.ModeLoots, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "remote", res.Source)

	it, err := router.Store(inventory.ModeLoots).Find(ctx, "1", nil)
	require.NoError(t, err)
	assert.Equal(t, inventory.UnassignedContainer, it.ContainerID)
	assert.Equal(t, []int{9}, it.EmployeeIDs)
}

func TestDecodeUploadResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    remote.UploadResult
		unknown bool
	}{
		{"object", `{"jsonrpc":"2.0","id":1,"result":{"success":true,"updated":3}}`, remote.UploadResult{Success: true, Updated: 3}, false},
		{"string", `{"jsonrpc":"2.0","id":1,"result":"{\"success\":false,\"error\":\"closed\"}"}`, remote.UploadResult{Error: "closed"}, false},
		{"number", `{"jsonrpc":"2.0","id":1,"result":42}`, remote.UploadResult{}, true},
		{"missing", `{"jsonrpc":"2.0","id":1}`, remote.UploadResult{}, true},
		{"string not json", `{"result":"ok"}`, remote.UploadResult{}, true},
		{"not an envelope", `[1,2]`, remote.UploadResult{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := remote.DecodeUploadResponse([]byte(tt.body))
			if tt.unknown {
				assert.ErrorIs(t, err, remote.ErrUnknownResponseShape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	fs, client := newService(t)
	fs.mux.HandleFunc("POST /api/scanmate/5/submit/9", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.uploaded = body
		fs.mu.Unlock()
		writeJSON(w, map[string]any{"jsonrpc": "2.0", "id": nil, "result": `{"success": true, "updated": 2}`})
	})

	router := newRouter(t)
	loader := importer.New(router, nil, zap.NewNop())
	_, err := loader.ReplaceDataset(ctx, inventory.ModeLoots, importer.Rows{
		{Barcode: "1", ContainerID: "A", Quantity: 2, ProductID: 44},
		{Barcode: "1", ContainerID: "B", Quantity: 1, ProductID: 44},
		{Barcode: "2", ContainerID: "A", Quantity: 1},
	})
	require.NoError(t, err)

	buffer := logbuffer.New(logbuffer.ForRouter(router), logbuffer.Config{}, zap.NewNop())
	store := router.Store(inventory.ModeLoots)
	_, err = store.Increment(ctx, "1", inventory.Ptr("A"), nil, buffer.AddLog)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "1", inventory.Ptr("B"), nil, buffer.AddLog)
	require.NoError(t, err)

	syncer := remote.NewSyncer(client, router, loader, buffer, zap.NewNop())
	res, err := syncer.Upload(ctx, inventory.ModeLoots, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	var sent struct {
		BarcodeData map[string]struct {
			CountedQty float64          `json:"counted_qty"`
			Logs       []map[string]any `json:"logs"`
		} `json:"barcode_data"`
	}
	require.NoError(t, json.Unmarshal(fs.uploaded, &sent))
	require.Len(t, sent.BarcodeData, 2)
	assert.Equal(t, 2.0, sent.BarcodeData["1"].CountedQty)
	require.Len(t, sent.BarcodeData["1"].Logs, 2)
	first := sent.BarcodeData["1"].Logs[0]
	assert.Equal(t, 5.0, first["session_id"])
	assert.Equal(t, 9.0, first["employee_id"])
	assert.Equal(t, 44.0, first["product_id"])
	assert.Equal(t, 1.0, first["scan_qty"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, first["timestamp"])
	assert.Empty(t, sent.BarcodeData["2"].Logs)
}

func TestUpload_Rejected(t *testing.T) {
	fs, client := newService(t)
	fs.mux.HandleFunc("POST /api/scanmate/1/submit/1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"jsonrpc": "2.0", "id": 1, "result": map[string]any{"success": false, "error": "session closed"}})
	})

	syncer := remote.NewSyncer(client, newRouter(t), nil, nil, zap.NewNop())
	res, err := syncer.Upload(context.Background(), inventory.ModeStandard, 1, 1)
	assert.ErrorIs(t, err, remote.ErrRejected)
	assert.Equal(t, "session closed", res.Error)
}
