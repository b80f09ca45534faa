package mediainfo

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"mediainfo-keeper/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(svc *Service) *fiber.App {
	app := fiber.New()
	_ = NewFeature(svc).Load(app)
	return app
}

func TestHandleEvent(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	svc := NewService(newFakeLibrary(), newTestStore(), cfg, testSweepConfig(), nil)
	app := newTestApp(svc)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"Queued", `{"kind":"added","item_id":"a"}`, fiber.StatusAccepted},
		{"QueueFull", `{"kind":"updated","item_id":"b"}`, fiber.StatusServiceUnavailable},
		{"UnknownKind", `{"kind":"removed","item_id":"c"}`, fiber.StatusBadRequest},
		{"MissingID", `{"kind":"added"}`, fiber.StatusBadRequest},
		{"Malformed", `{"kind":`, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/mediainfo/events", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHandleSweep(t *testing.T) {
	dir := t.TempDir()
	lib := newFakeLibrary(refItem(dir, "a", false, 0))
	app := newTestApp(newTestService(lib, newTestStore()))

	resp, err := app.Test(httptest.NewRequest("POST", "/mediainfo/sweep?wait=true&dry_run=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report SweepReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, SweepCompleted, report.Status)
	assert.True(t, report.Options.DryRun)
	require.Len(t, report.Planned, 1)
	assert.Equal(t, reconcile.ActionProbe, report.Planned[0].Decision.Action)

	resp, err = app.Test(httptest.NewRequest("GET", "/mediainfo/sweep", nil))
	require.NoError(t, err)
	var state SweepState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	require.NotNil(t, state.Last)
	assert.Equal(t, 1, state.Last.Total)
}

func TestHandleSweep_Failed(t *testing.T) {
	lib := newFakeLibrary()
	lib.wmErr = reconcile.ErrConfigUnavailable
	app := newTestApp(newTestService(lib, newTestStore()))

	resp, err := app.Test(httptest.NewRequest("POST", "/mediainfo/sweep?wait=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var report SweepReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, SweepFailed, report.Status)
}

func TestHandleSweep_Background(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(newFakeLibrary(refItem(dir, "a", false, 0)), newTestStore())
	app := newTestApp(svc)
	require.NoError(t, svc.Start(context.Background()))

	resp, err := app.Test(httptest.NewRequest("POST", "/mediainfo/sweep?dry_run=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	svc.Stop()
	resp, err = app.Test(httptest.NewRequest("POST", "/mediainfo/sweep", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleInspect(t *testing.T) {
	dir := t.TempDir()
	app := newTestApp(newTestService(newFakeLibrary(refItem(dir, "heat", true, 0)), newTestStore()))

	resp, err := app.Test(httptest.NewRequest("GET", "/mediainfo/items/heat", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out Inspection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, reconcile.ActionBackup, out.Decision.Action)

	resp, err = app.Test(httptest.NewRequest("GET", "/mediainfo/items/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleFailuresAndStats(t *testing.T) {
	svc := newTestService(newFakeLibrary(), newTestStore())
	svc.tracker.Requested("flaky")
	svc.tracker.Requested("flaky")
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/mediainfo/failures", nil))
	require.NoError(t, err)
	var entries []reconcile.FailureEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "flaky", entries[0].ItemID)

	resp, err = app.Test(httptest.NewRequest("GET", "/mediainfo/stats", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"evaluated":0`)
}
