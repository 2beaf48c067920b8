package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/metrics"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/store"
	"github.com/b0ase/cashboard/tabs"
	"github.com/b0ase/cashboard/workspace"
)

func init() { gin.SetMode(gin.TestMode) }

type testAPI struct {
	t        *testing.T
	r        *gin.Engine
	store    *store.CanvasStore
	sessions *workspace.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	m := metrics.New()
	cs := store.NewCanvasStore(store.NewMemKV(), store.WithMetrics(m))
	mgr := workspace.NewManager(m, workspace.WithStore(cs))
	return &testAPI{
		t:        t,
		r:        NewRouter(Deps{Sessions: mgr, Store: cs, Metrics: m}),
		store:    cs,
		sessions: mgr,
	}
}

func (a *testAPI) do(method, path string, body any) (int, APIResponse) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	var resp APIResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func (a *testAPI) session() string {
	code, resp := a.do(http.MethodPost, "/sessions", nil)
	require.Equal(a.t, http.StatusCreated, code)
	return resp.Data["id"].(string)
}

func TestHealthAndCORS(t *testing.T) {
	a := newTestAPI(t)
	code, resp := a.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Data["status"])

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownSession(t *testing.T) {
	a := newTestAPI(t)
	code, resp := a.do(http.MethodGet, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "session not found")
}

func TestNodeLifecycle(t *testing.T) {
	a := newTestAPI(t)
	id := a.session()
	base := "/sessions/" + id

	code, resp := a.do(http.MethodPost, base+"/nodes", map[string]any{"kind": "task"})
	require.Equal(t, http.StatusCreated, code)
	node := resp.Data["node"].(map[string]any)
	nid := node["id"].(string)

	code, _ = a.do(http.MethodPost, base+"/nodes", map[string]any{"kind": "spaceship"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = a.do(http.MethodPatch, base+"/nodes/"+nid, map[string]any{
		"position":       map[string]any{"x": 10, "y": 20},
		"handcashHandle": "$ops",
	})
	require.Equal(t, http.StatusOK, code)
	patched := resp.Data["node"].(map[string]any)
	assert.Equal(t, "$ops", patched["handcashHandle"])

	code, _ = a.do(http.MethodPatch, base+"/nodes/"+nid, map[string]any{"walletType": "paper"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = a.do(http.MethodPost, base+"/edges", map[string]any{"source": "1", "target": nid})
	require.Equal(t, http.StatusCreated, code)
	edge := resp.Data["edge"].(map[string]any)

	code, _ = a.do(http.MethodDelete, base+"/edges/"+edge["id"].(string), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodDelete, base+"/edges/"+edge["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = a.do(http.MethodDelete, base+"/nodes/"+nid, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp.Data["deleted"])
	code, resp = a.do(http.MethodDelete, base+"/nodes/"+nid, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp.Data["deleted"])

	code, resp = a.do(http.MethodGet, "/canvases", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, resp.Data["titles"], store.SanitizeTitle(catalog.MainTabTitle))
}

func TestPatchNodeIsAllOrNothing(t *testing.T) {
	a := newTestAPI(t)
	id := a.session()
	base := "/sessions/" + id
	ctx := context.Background()

	code, resp := a.do(http.MethodPost, base+"/nodes", map[string]any{"kind": "wallets"})
	require.Equal(t, http.StatusCreated, code)
	nid := model.ID(resp.Data["node"].(map[string]any)["id"].(string))

	w, err := a.sessions.Get(id)
	require.NoError(t, err)
	before, ok := w.Canvas(ctx).Node(nid)
	require.True(t, ok)
	title := store.SanitizeTitle(catalog.MainTabTitle)
	saved, _, ok := a.store.Load(ctx, title)
	require.True(t, ok)

	for name, body := range map[string]map[string]any{
		"wallet type": {"position": map[string]any{"x": 999, "y": 999}, "walletType": "bogus"},
		"threshold":   {"handcashHandle": "$changed", "multisigThreshold": 99},
	} {
		t.Run(name, func(t *testing.T) {
			code, _ := a.do(http.MethodPatch, base+"/nodes/"+string(nid), body)
			assert.Equal(t, http.StatusBadRequest, code)

			after, ok := w.Canvas(ctx).Node(nid)
			require.True(t, ok)
			assert.Equal(t, before, after)
			stored, _, ok := a.store.Load(ctx, title)
			require.True(t, ok)
			assert.Equal(t, saved, stored)
		})
	}

	code, resp = a.do(http.MethodPatch, base+"/nodes/"+string(nid), map[string]any{
		"position":          map[string]any{"x": 5, "y": 6},
		"walletType":        "multisig",
		"multisigThreshold": 2,
		"multisigSigners":   []string{"$a", "$b"},
	})
	require.Equal(t, http.StatusOK, code)
	after, ok := w.Canvas(ctx).Node(nid)
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 5, Y: 6}, after.Position)
	assert.Equal(t, model.WalletMultisig, after.WalletType)
	assert.Equal(t, 2, after.MultisigThreshold)
	assert.Equal(t, []string{"$a", "$b"}, after.MultisigSigners)

	code, _ = a.do(http.MethodPatch, base+"/nodes/missing", map[string]any{"handcashHandle": "$x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPickOpensModalAndSelectInserts(t *testing.T) {
	a := newTestAPI(t)
	base := "/sessions/" + a.session()

	code, resp := a.do(http.MethodPost, base+"/pick", map[string]any{"kind": "role"})
	require.Equal(t, http.StatusOK, code)
	modal := resp.Data["modal"].(map[string]any)
	items := modal["items"].([]any)
	require.NotEmpty(t, items)

	code, resp = a.do(http.MethodPost, base+"/modal/select", map[string]any{"item": items[0]})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "insert", resp.Data["action"])

	code, _ = a.do(http.MethodPost, base+"/modal/select", map[string]any{"item": items[0]})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = a.do(http.MethodGet, base+"/modal", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestDrillAndBack(t *testing.T) {
	a := newTestAPI(t)
	base := "/sessions/" + a.session()

	code, resp := a.do(http.MethodPost, base+"/nodes/10/open", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data["breadcrumbs"], 2)

	code, resp = a.do(http.MethodPost, base+"/breadcrumbs/0", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, catalog.MainTabTitle, resp.Data["entry"].(map[string]any)["title"])

	code, _ = a.do(http.MethodPost, base+"/breadcrumbs/x", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTabsAndView(t *testing.T) {
	a := newTestAPI(t)
	base := "/sessions/" + a.session()

	code, resp := a.do(http.MethodPost, base+"/tabs", nil)
	require.Equal(t, http.StatusCreated, code)
	tab := resp.Data["tab"].(map[string]any)["id"].(string)

	code, resp = a.do(http.MethodPut, base+"/tabs/"+tab, map[string]any{"title": "Budget"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp.Data["changed"])

	code, _ = a.do(http.MethodDelete, base+"/tabs/"+tabs.MainID, nil)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = a.do(http.MethodDelete, base+"/tabs/"+tab, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = a.do(http.MethodPost, base+"/zoom/in", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(workspace.DefaultScale+workspace.ScaleStep), resp.Data["canvasScale"])
	code, _ = a.do(http.MethodPost, base+"/zoom/sideways", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = a.do(http.MethodPost, base+"/style", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "smoothstep", resp.Data["connectionStyle"])

	code, resp = a.do(http.MethodPost, base+"/running", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "running", resp.Data["settings"].(map[string]any)["workflowStatus"])
}

func TestExportImportRoundTrip(t *testing.T) {
	a := newTestAPI(t)
	base := "/sessions/" + a.session()

	req := httptest.NewRequest(http.MethodGet, base+"/export", nil)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "_workflow.json")
	exported := w.Body.Bytes()

	other := "/sessions/" + a.session()
	code, resp := a.do(http.MethodPost, other+"/import", exported)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cashboard", resp.Data["format"])

	code, _ = a.do(http.MethodPost, other+"/import", []byte(`{"foo":1}`))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.session()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cashboard_active_sessions 1")
}

func TestViews(t *testing.T) {
	a := newTestAPI(t)
	code, resp := a.do(http.MethodGet, "/sessions/"+a.session()+"/views", nil)
	require.Equal(t, http.StatusOK, code)
	views := resp.Data["views"].([]any)
	assert.Len(t, views, 24)
	assert.NotEmpty(t, views[0].(map[string]any)["icon"])
}
