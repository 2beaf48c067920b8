package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b0ase/cashboard/canvas"
	"github.com/b0ase/cashboard/format/cashboard"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/nav"
	"github.com/b0ase/cashboard/render"
	"github.com/b0ase/cashboard/workspace"
)

const sessionKey = "session"

// maxImportBytes caps import request bodies.
const maxImportBytes = 8 << 20

// session resolves :id and stores the workspace on the context.
func (h *handlers) session(c *gin.Context) {
	w, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		sendErr(c, err)
		c.Abort()
		return
	}
	c.Set(sessionKey, w)
	c.Next()
}

func ws(c *gin.Context) *workspace.Workspace {
	return c.MustGet(sessionKey).(*workspace.Workspace)
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// frameRequest is the optional screen frame of picks and template inserts.
type frameRequest struct {
	Viewport *model.Viewport `json:"viewport"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
}

func (f *frameRequest) frame() canvas.Frame {
	if f == nil || f.Viewport == nil {
		return canvas.DefaultFrame
	}
	return canvas.Frame{Viewport: *f.Viewport, Width: f.Width, Height: f.Height}
}

func entryData(e nav.Entry) map[string]interface{} {
	d := map[string]interface{}{"id": e.ID, "title": e.Title, "canvas": e.Canvas}
	if e.Parent != nil {
		d["parent"] = e.Parent
	}
	if e.WorkflowID != "" {
		d["workflowId"] = e.WorkflowID
	}
	return d
}

func (h *handlers) catalogItems(c *gin.Context) {
	k := model.Kind(c.Param("kind"))
	if !k.Valid() {
		sendErr(c, fmt.Errorf("%q: %w", k, model.ErrUnknownKind))
		return
	}
	sendSuccess(c, map[string]interface{}{"kind": k, "items": h.Catalog.Items(k)})
}

func (h *handlers) listCanvases(c *gin.Context) {
	if h.Store == nil {
		sendSuccess(c, map[string]interface{}{"titles": []string{}})
		return
	}
	titles, err := h.Store.Titles(c.Request.Context())
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"titles": titles})
}

func (h *handlers) deleteCanvas(c *gin.Context) {
	if h.Store == nil {
		sendError(c, http.StatusNotFound, "no canvas store configured")
		return
	}
	if err := h.Store.Delete(c.Request.Context(), c.Param("title")); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"deleted": c.Param("title")})
}

func (h *handlers) createSession(c *gin.Context) {
	w := h.Sessions.Create(c.Request.Context())
	h.log.Info("session created", zap.String("session", w.ID()))
	sendCreated(c, map[string]interface{}{"id": w.ID(), "state": w.State(c.Request.Context())})
}

func (h *handlers) listSessions(c *gin.Context) {
	list := h.Sessions.List()
	out := make([]map[string]interface{}, 0, len(list))
	for _, w := range list {
		out = append(out, map[string]interface{}{"id": w.ID(), "created": w.Created(), "activeTab": w.ActiveTab().ID})
	}
	sendSuccess(c, map[string]interface{}{"sessions": out})
}

func (h *handlers) state(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"state": ws(c).State(c.Request.Context())})
}

func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.Sessions.Delete(c.Param("id")); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"deleted": c.Param("id")})
}

func (h *handlers) logs(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"logs": ws(c).Logs()})
}

// views renders the node cards of the active canvas.
func (h *handlers) views(c *gin.Context) {
	nodes := ws(c).Canvas(c.Request.Context()).Nodes
	out := make([]render.NodeView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, render.View(n))
	}
	sendSuccess(c, map[string]interface{}{"views": out})
}

func (h *handlers) addNode(c *gin.Context) {
	var req struct {
		Kind model.Kind `json:"kind" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if !req.Kind.Valid() {
		sendErr(c, fmt.Errorf("%q: %w", req.Kind, model.ErrUnknownKind))
		return
	}
	n := ws(c).AddNodeToActiveCanvas(c.Request.Context(), req.Kind)
	sendCreated(c, map[string]interface{}{"node": n})
}

// patchRequest carries the inline edits a node card allows.
type patchRequest struct {
	Position          *model.Position   `json:"position"`
	HandcashHandle    *string           `json:"handcashHandle"`
	TokenAddress      *string           `json:"tokenAddress"`
	WalletType        *model.WalletType `json:"walletType"`
	MultisigThreshold *int              `json:"multisigThreshold"`
	MultisigSigners   []string          `json:"multisigSigners"`
}

// validate rejects the request before any field is applied.
func (r patchRequest) validate() error {
	if r.WalletType != nil && !r.WalletType.Valid() {
		return fmt.Errorf("wallet type %q: %w", *r.WalletType, canvas.ErrInvalidValue)
	}
	if t := r.MultisigThreshold; t != nil && (*t < canvas.MinThreshold || *t > canvas.MaxThreshold) {
		return fmt.Errorf("threshold %d outside %d..%d: %w", *t, canvas.MinThreshold, canvas.MaxThreshold, canvas.ErrInvalidValue)
	}
	return nil
}

func (r patchRequest) apply(n *model.Node) {
	if r.Position != nil {
		n.Position = *r.Position
	}
	if r.HandcashHandle != nil {
		n.HandcashHandle = *r.HandcashHandle
	}
	if r.TokenAddress != nil {
		n.TokenAddress = *r.TokenAddress
	}
	if r.WalletType != nil {
		n.WalletType = *r.WalletType
	}
	if r.MultisigThreshold != nil {
		n.MultisigThreshold = *r.MultisigThreshold
		if r.MultisigSigners != nil {
			n.MultisigSigners = append([]string(nil), r.MultisigSigners...)
		}
	}
}

func (h *handlers) patchNode(c *gin.Context) {
	var req patchRequest
	if !bind(c, &req) {
		return
	}
	if err := req.validate(); err != nil {
		sendErr(c, err)
		return
	}
	ctx := c.Request.Context()
	id := model.ID(c.Param("node"))
	var node model.Node
	err := ws(c).Do(ctx, func(ctrl *canvas.Controller) error {
		if err := ctrl.Update(ctx, id, req.apply); err != nil {
			return err
		}
		node, _ = ctrl.Node(id)
		return nil
	})
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"node": node})
}

func (h *handlers) deleteNode(c *gin.Context) {
	id := model.ID(c.Param("node"))
	removed := ws(c).DeleteNodeFromCanvas(c.Request.Context(), id)
	sendSuccess(c, map[string]interface{}{"id": id, "deleted": removed})
}

func (h *handlers) openNode(c *gin.Context) {
	e, err := ws(c).ClickNode(c.Request.Context(), model.ID(c.Param("node")))
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"entry": entryData(e), "breadcrumbs": ws(c).Breadcrumbs(c.Request.Context())})
}

func (h *handlers) form(c *gin.Context) {
	f, err := ws(c).Form(c.Request.Context(), model.ID(c.Param("node")))
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"form": f})
}

func (h *handlers) editNode(c *gin.Context) {
	var req struct {
		Values map[string]any `json:"values"`
	}
	if !bind(c, &req) {
		return
	}
	n, err := ws(c).EditNode(c.Request.Context(), model.ID(c.Param("node")), req.Values)
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"node": n})
}

func (h *handlers) connect(c *gin.Context) {
	var req struct {
		Source model.ID `json:"source" binding:"required"`
		Target model.ID `json:"target" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	var e model.Edge
	err := ws(c).Do(c.Request.Context(), func(ctrl *canvas.Controller) error {
		var err error
		e, err = ctrl.Connect(c.Request.Context(), req.Source, req.Target)
		return err
	})
	if err != nil {
		sendErr(c, err)
		return
	}
	sendCreated(c, map[string]interface{}{"edge": e})
}

func (h *handlers) deleteEdge(c *gin.Context) {
	id := model.ID(c.Param("edge"))
	err := ws(c).Do(c.Request.Context(), func(ctrl *canvas.Controller) error {
		if !ctrl.DeleteEdge(c.Request.Context(), id) {
			return fmt.Errorf("delete %s: %w", id, canvas.ErrEdgeNotFound)
		}
		return nil
	})
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"deleted": id})
}

func (h *handlers) pick(c *gin.Context) {
	var req struct {
		Kind  model.Kind    `json:"kind" binding:"required"`
		Frame *frameRequest `json:"frame"`
	}
	if !bind(c, &req) {
		return
	}
	res, err := ws(c).Pick(c.Request.Context(), req.Kind, req.Frame.frame())
	if err != nil {
		sendErr(c, err)
		return
	}
	data := map[string]interface{}{}
	if res.Node != nil {
		data["node"] = res.Node
	}
	if res.Modal != nil {
		data["modal"] = res.Modal
	}
	sendSuccess(c, data)
}

func (h *handlers) modal(c *gin.Context) {
	m := ws(c).Modal()
	if m == nil {
		sendErr(c, workspace.ErrNoModal)
		return
	}
	sendSuccess(c, map[string]interface{}{"modal": m})
}

func (h *handlers) closeModal(c *gin.Context) {
	ws(c).CloseModal()
	sendSuccess(c, map[string]interface{}{"closed": true})
}

func (h *handlers) selectTemplate(c *gin.Context) {
	var req struct {
		Item  model.TemplateItem `json:"item"`
		Frame *frameRequest      `json:"frame"`
	}
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	out, err := ws(c).SelectTemplate(ctx, req.Item, req.Frame.frame())
	if err != nil {
		sendErr(c, err)
		return
	}
	data := map[string]interface{}{"action": out.Action.String(), "activeTab": ws(c).ActiveTab()}
	if out.Next != nil {
		data["modal"] = out.Next
	}
	sendSuccess(c, data)
}

func (h *handlers) breadcrumbs(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"breadcrumbs": ws(c).Breadcrumbs(c.Request.Context())})
}

func (h *handlers) back(c *gin.Context) {
	e := ws(c).Back(c.Request.Context())
	sendSuccess(c, map[string]interface{}{"entry": entryData(e), "breadcrumbs": ws(c).Breadcrumbs(c.Request.Context())})
}

func (h *handlers) jump(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "index must be an integer")
		return
	}
	e := ws(c).JumpTo(c.Request.Context(), i)
	sendSuccess(c, map[string]interface{}{"entry": entryData(e), "breadcrumbs": ws(c).Breadcrumbs(c.Request.Context())})
}

func (h *handlers) createTab(c *gin.Context) {
	var req struct {
		Template *model.TemplateItem `json:"template"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	t := ws(c).CreateTab(c.Request.Context(), req.Template)
	sendCreated(c, map[string]interface{}{"tab": t})
}

func (h *handlers) createNodeTab(c *gin.Context) {
	t, err := ws(c).CreateNodeTab(c.Request.Context(), model.ID(c.Param("node")))
	if err != nil {
		sendErr(c, err)
		return
	}
	sendCreated(c, map[string]interface{}{"tab": t})
}

func (h *handlers) renameTab(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if !bind(c, &req) {
		return
	}
	changed, err := ws(c).RenameTab(c.Request.Context(), c.Param("tab"), req.Title)
	if err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"changed": changed, "tabs": ws(c).Tabs()})
}

func (h *handlers) switchTab(c *gin.Context) {
	if err := ws(c).SwitchTab(c.Request.Context(), c.Param("tab")); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"activeTab": ws(c).ActiveTab()})
}

func (h *handlers) closeTab(c *gin.Context) {
	if err := ws(c).CloseTab(c.Param("tab")); err != nil {
		sendErr(c, err)
		return
	}
	sendSuccess(c, map[string]interface{}{"tabs": ws(c).Tabs(), "activeTab": ws(c).ActiveTab()})
}

func (h *handlers) setViewport(c *gin.Context) {
	var vp model.Viewport
	if !bind(c, &vp) {
		return
	}
	ws(c).SetViewport(c.Request.Context(), vp)
	sendSuccess(c, map[string]interface{}{"view": ws(c).View(c.Request.Context())})
}

func (h *handlers) setSettings(c *gin.Context) {
	var s model.Settings
	if !bind(c, &s) {
		return
	}
	ws(c).SetSettings(c.Request.Context(), s)
	sendSuccess(c, map[string]interface{}{"view": ws(c).View(c.Request.Context())})
}

func (h *handlers) toggleRunning(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"settings": ws(c).ToggleRunning(c.Request.Context())})
}

func (h *handlers) toggleAuto(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"settings": ws(c).ToggleAutoMode(c.Request.Context())})
}

func (h *handlers) cycleStyle(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"connectionStyle": ws(c).CycleConnectionStyle()})
}

func (h *handlers) zoom(c *gin.Context) {
	dir, err := workspace.ParseZoom(c.Param("dir"))
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	sendSuccess(c, map[string]interface{}{"canvasScale": ws(c).Zoom(c.Request.Context(), dir)})
}

func (h *handlers) export(c *gin.Context) {
	doc := ws(c).Export(c.Request.Context())
	b, err := cashboard.Marshal(doc)
	if err != nil {
		sendErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cashboard.FileName(doc.Metadata.Name)))
	c.Data(http.StatusOK, "application/json", b)
}

func (h *handlers) importDoc(c *gin.Context) {
	b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	format, err := ws(c).ImportBytes(c.Request.Context(), b)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	sendSuccess(c, map[string]interface{}{"format": format, "state": ws(c).State(c.Request.Context())})
}
