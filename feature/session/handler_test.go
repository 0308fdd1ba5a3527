package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scanmate/core/database"
	"scanmate/feature/exporter"
	"scanmate/feature/importer"
	"scanmate/feature/inventory"
	"scanmate/feature/logbuffer"
	"scanmate/feature/remote"
	"scanmate/feature/scanning"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *Service) {
	t.Helper()
	open := func(mode inventory.Mode) *inventory.Store {
		db, err := database.Connect(database.Config{Name: database.MemoryDSN})
		require.NoError(t, err)
		s, err := inventory.NewStore(mode, db, zap.NewNop())
		require.NoError(t, err)
		return s
	}
	logger := zap.NewNop()
	router := inventory.NewRouter(open(inventory.ModeStandard), open(inventory.ModeLoots))
	buffer := logbuffer.New(logbuffer.ForRouter(router), logbuffer.Config{}, logger)

	svc := NewService(Deps{
		Router:   router,
		Pipeline: scanning.New(router, buffer, scanning.AutoConfirm(true), nil, scanning.Config{}, logger),
		Buffer:   buffer,
		Loader:   importer.New(router, buffer, logger),
		Exporter: exporter.New(router, buffer, exporter.Config{}, logger),
	}, logger)
	svc.Start(context.Background())
	t.Cleanup(func() {
		_ = svc.Stop(context.Background())
		_ = router.Close()
	})

	app := fiber.New()
	require.NoError(t, NewFeature(svc).Load(app))
	return app, svc
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &out)
	return resp, out
}

func TestHandleScan(t *testing.T) {
	app, svc := setupTestApp(t)

	resp, body := do(t, app, "POST", "/scans", `{"barcodes":["123"," ","123"]}`)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.EqualValues(t, 2, body["queued"])
	assert.EqualValues(t, 1, body["dropped"])

	require.Eventually(t, func() bool {
		st := svc.Status()
		return st.Counters.Processed == 2 && st.Last != nil && st.Last.Item != nil && st.Last.Item.ScannedQuantity == 2
	}, 2*time.Second, 10*time.Millisecond)

	status := svc.Status()
	require.NotNil(t, status.Last)
	assert.Equal(t, scanning.OutcomeIncremented, status.Last.Outcome)
	assert.Equal(t, 2.0, status.Last.Item.ScannedQuantity)

	resp, body = do(t, app, "GET", "/stats/standard", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.EqualValues(t, 2, body["totalScanned"])
}

func TestHandleScan_Empty(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := do(t, app, "POST", "/scans", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleSetMode(t *testing.T) {
	app, svc := setupTestApp(t)

	resp, _ := do(t, app, "PUT", "/mode", `{"mode":"pallets"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, app, "PUT", "/mode", `{"mode":"loots","container":"BOX-7"}`)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "loots", body["mode"])
	assert.Equal(t, "BOX-7", body["container"])

	mode, container := svc.Pipeline.Mode()
	assert.Equal(t, inventory.ModeLoots, mode)
	require.NotNil(t, container)
	assert.Equal(t, "BOX-7", *container)
}

func TestManualEditFlow(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := do(t, app, "POST", "/import/json?mode=standard", `[{"barcode":"A","quantity":3},{"barcode":"B","quantity":1}]`)
	require.Equal(t, 200, resp.StatusCode, body)
	assert.EqualValues(t, 2, body["imported"])

	resp, body = do(t, app, "PUT", "/items/A/scanned", `{"value":2,"section":"aisle 4"}`)
	require.Equal(t, 200, resp.StatusCode, body)
	assert.EqualValues(t, 2, body["scannedQuantity"])

	req := httptest.NewRequest("GET", "/items/standard/A/logs", nil)
	logsResp, err := app.Test(req, -1)
	require.NoError(t, err)
	var logs []inventory.LogEntry
	require.NoError(t, json.NewDecoder(logsResp.Body).Decode(&logs))
	require.Len(t, logs, 1)
	assert.Equal(t, 2.0, logs[0].Delta)
	require.NotNil(t, logs[0].IsManual)
	assert.True(t, *logs[0].IsManual)

	resp, body = do(t, app, "GET", "/audit/standard", "")
	require.Equal(t, 200, resp.StatusCode)
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 0, summary["drifted"])
	assert.EqualValues(t, 2, summary["consistent"])
}

func TestHandleSetScanned_Errors(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := do(t, app, "PUT", "/items/nope/scanned", `{"value":1}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, "PUT", "/items/nope/scanned", `{"value":-1}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "PUT", "/items/nope/scanned", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, app, "PUT", "/items/nope/scanned", `{"mode":"loots","value":1}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "container is required")
}

func TestHandleImport_NoValidRows(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := do(t, app, "POST", "/import/json?mode=standard", `[{"barcode":"  "}]`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/import/csv?mode=standard", `[]`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/import/json", `[{"barcode":"A"}]`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleExport(t *testing.T) {
	app, _ := setupTestApp(t)
	do(t, app, "POST", "/import/json?mode=standard", `[{"barcode":"A","quantity":3}]`)

	resp, err := app.Test(httptest.NewRequest("GET", "/export/standard/dataset", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "standard_dataset_")
	assert.NotEmpty(t, resp.Header.Get("X-Export-ID"))

	var rows []exporter.DatasetRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Barcode)

	resp, err = app.Test(httptest.NewRequest("GET", "/export/standard/dataset?format=csv", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleContainers(t *testing.T) {
	app, _ := setupTestApp(t)
	do(t, app, "POST", "/import/json?mode=loots", `[{"barcode":"A","boxId":"B2"},{"barcode":"A","boxId":"B1"}]`)

	resp, err := app.Test(httptest.NewRequest("GET", "/containers", nil), -1)
	require.NoError(t, err)
	var boxes []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&boxes))
	assert.Equal(t, []string{"B1", "B2"}, boxes)
}

func TestUnavailableIntegrations(t *testing.T) {
	app, _ := setupTestApp(t)

	for _, target := range []string{"/sync/standard/download", "/sync/standard/upload"} {
		resp, _ := do(t, app, "POST", target, "")
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode, target)
	}
	resp, _ := do(t, app, "GET", "/sync/employees", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = do(t, app, "GET", "/archive/standard/dataset", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&inventory.ValidationError{Op: "x", Err: inventory.ErrNoValidRows}, fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", inventory.ErrNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: no", remote.ErrRejected), fiber.StatusConflict},
		{&remote.TransportError{Op: "GET", Err: errors.New("refused")}, fiber.StatusBadGateway},
		{remote.ErrUnknownResponseShape, fiber.StatusBadGateway},
		{remote.ErrNotConfigured, fiber.StatusServiceUnavailable},
		{inventory.ErrStoreClosed, fiber.StatusServiceUnavailable},
		{&inventory.TransactionError{Mode: inventory.ModeLoots, Err: errors.New("disk")}, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
