package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/export"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/input"
	"github.com/xraph/invoicer/internal/logger"
	"github.com/xraph/invoicer/ledger"
	"github.com/xraph/invoicer/session"
	"github.com/xraph/invoicer/types"
	"github.com/xraph/invoicer/words"
)

const sessionKey = "session"

// Handler serves the session endpoints.
type Handler struct {
	engine    *invoicer.Engine
	logger    *slog.Logger
	maxUpload int64
}

// DocumentResponse is the body returned after every read or edit.
type DocumentResponse struct {
	SessionID     string          `json:"session_id"`
	Document      document.Record `json:"document"`
	AmountInWords string          `json:"amount_in_words"`
}

// ItemResponse is returned by item mutations.
type ItemResponse struct {
	Item document.LineItem `json:"item"`
	DocumentResponse
}

// OpenRequest is the optional body of POST /sessions.
type OpenRequest struct {
	Owner  string            `json:"owner"`
	Kind   string            `json:"kind"`
	Labels map[string]string `json:"labels"`
}

// ListQuery is the query of GET /sessions.
type ListQuery struct {
	Owner  string `form:"owner"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func documentResponse(sessionID id.SessionID, view document.View) DocumentResponse {
	return DocumentResponse{
		SessionID:     sessionID.String(),
		Document:      view.Record,
		AmountInWords: view.AmountInWords,
	}
}

func invalid(field string, err error) error {
	return invoicer.ValidationError{Field: field, Message: err.Error()}
}

// ──────────────────────────────────────────────────
// Service
// ──────────────────────────────────────────────────

// Health reports whether the session store is reachable.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.engine.Store().Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	n, _ := h.engine.Store().CountSessions(ctx)
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"sessions":  n,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Formats lists the registered render formats.
func (h *Handler) Formats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.engine.Formats()})
}

// Words spells out ?amount= in Naira and Kobo.
func (h *Handler) Words(c *gin.Context) {
	raw := c.Query("amount")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		abort(c, invalid("amount", fmt.Errorf("not a number: %q", raw)))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount": amount.StringFixed(2),
		"words":  words.Amount(amount),
	})
}

// ──────────────────────────────────────────────────
// Sessions
// ──────────────────────────────────────────────────

// OpenSession creates a session with a default record.
func (h *Handler) OpenSession(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abort(c, invalid("body", err))
		return
	}

	opts := invoicer.OpenOpts{Owner: req.Owner, Labels: req.Labels}
	if req.Kind != "" {
		kind, err := document.ParseKind(req.Kind)
		if err != nil {
			abort(c, invalid("kind", err))
			return
		}
		opts.Kind = kind
	}

	sess, err := h.engine.Open(c.Request.Context(), opts)
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Location", "/api/v1/sessions/"+sess.ID.String())
	c.JSON(http.StatusCreated, documentResponse(sess.ID, sess.Manager.View()))
}

// ListSessions summarizes open sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, invalid("query", err))
		return
	}
	infos, err := h.engine.List(c.Request.Context(), session.ListOpts{
		Owner:  q.Owner,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": infos})
}

// loadSession resolves :session and stores it on the context.
func (h *Handler) loadSession(c *gin.Context) {
	sid, err := id.ParseSessionID(c.Param("session"))
	if err != nil {
		abort(c, fmt.Errorf("%w: %s", invoicer.ErrSessionNotFound, c.Param("session")))
		return
	}
	sess, err := h.engine.Get(c.Request.Context(), sid)
	if err != nil {
		abort(c, err)
		return
	}
	c.Set(sessionKey, sess)
	c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), sid.String()))
	c.Next()
}

func current(c *gin.Context) (*session.Session, *ledger.Manager) {
	sess := c.MustGet(sessionKey).(*session.Session)
	return sess, sess.Manager
}

// GetDocument returns the current record and amount in words.
func (h *Handler) GetDocument(c *gin.Context) {
	sess, m := current(c)
	c.JSON(http.StatusOK, documentResponse(sess.ID, m.View()))
}

// CloseSession discards the session.
func (h *Handler) CloseSession(c *gin.Context) {
	sess, _ := current(c)
	if err := h.engine.Close(c.Request.Context(), sess.ID); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Editing
// ──────────────────────────────────────────────────

// SetFields applies a partial record update.
func (h *Handler) SetFields(c *gin.Context) {
	sess, m := current(c)

	var form input.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		abort(c, invalid("body", err))
		return
	}
	patch, err := form.Patch()
	if err != nil {
		abort(c, invalid("document", err))
		return
	}

	view := m.View()
	if !patch.IsEmpty() {
		view = m.SetField(c.Request.Context(), patch)
	}
	c.JSON(http.StatusOK, documentResponse(sess.ID, view))
}

// RecalculateTotals forces a recompute of the derived fields.
func (h *Handler) RecalculateTotals(c *gin.Context) {
	sess, m := current(c)
	c.JSON(http.StatusOK, documentResponse(sess.ID, m.RecalculateTotals(c.Request.Context())))
}

// SessionWords returns the record total and its spelling.
func (h *Handler) SessionWords(c *gin.Context) {
	_, m := current(c)
	view := m.View()
	c.JSON(http.StatusOK, gin.H{
		"total": view.Record.Total,
		"words": view.AmountInWords,
	})
}

// AddItem appends a blank row.
func (h *Handler) AddItem(c *gin.Context) {
	sess, m := current(c)
	item := m.AddItem(c.Request.Context())
	c.JSON(http.StatusCreated, ItemResponse{
		Item:             item,
		DocumentResponse: documentResponse(sess.ID, m.View()),
	})
}

// UpdateItem merges a partial row update.
func (h *Handler) UpdateItem(c *gin.Context) {
	sess, m := current(c)
	itemID := document.ItemID(c.Param("item"))

	var form input.ItemForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abort(c, invalid("body", err))
		return
	}

	item, ok := m.UpdateItem(c.Request.Context(), itemID, form.Patch(types.Naira.Code))
	if !ok {
		abort(c, fmt.Errorf("%w: %s", invoicer.ErrItemNotFound, itemID))
		return
	}
	c.JSON(http.StatusOK, ItemResponse{
		Item:             item,
		DocumentResponse: documentResponse(sess.ID, m.View()),
	})
}

// RemoveItem deletes a row. The last remaining row cannot be removed.
func (h *Handler) RemoveItem(c *gin.Context) {
	sess, m := current(c)
	itemID := document.ItemID(c.Param("item"))

	switch err := m.RemoveItemAbove(c.Request.Context(), itemID, 1); {
	case errors.Is(err, ledger.ErrUnknownItem):
		abort(c, fmt.Errorf("%w: %s", invoicer.ErrItemNotFound, itemID))
		return
	case errors.Is(err, ledger.ErrItemFloor):
		abort(c, invoicer.ErrLastItem)
		return
	case err != nil:
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, documentResponse(sess.ID, m.View()))
}

// ──────────────────────────────────────────────────
// Export
// ──────────────────────────────────────────────────

// ExportPDF tiles an uploaded rendering of the document into a PDF. The
// image arrives as the "image" field of a multipart form or as the raw body.
func (h *Handler) ExportPDF(c *gin.Context) {
	sess, _ := current(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	data, err := h.readRaster(c)
	if err != nil {
		h.logger.Warn("export upload rejected",
			"session_id", sess.ID.String(),
			"error", err,
		)
		abort(c, fmt.Errorf("%w: %w", invoicer.ErrInvalidImage, err))
		return
	}

	res, err := h.engine.ExportPDF(c.Request.Context(), sess.ID, export.Raster{Data: data})
	if err != nil {
		abort(c, err)
		return
	}
	sendPDF(c, res)
}

func (h *Handler) readRaster(c *gin.Context) ([]byte, error) {
	if c.ContentType() != "multipart/form-data" {
		return io.ReadAll(c.Request.Body)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Render returns the document in a registered format. PDF responses carry
// the download headers whichever formatter produced them.
func (h *Handler) Render(c *gin.Context) {
	sess, _ := current(c)
	ctx := c.Request.Context()
	format := c.Param("format")

	if format == "pdf" {
		res, err := h.engine.RenderPDF(ctx, sess.ID)
		if err != nil {
			abort(c, err)
			return
		}
		sendPDF(c, res)
		return
	}

	var buf bytes.Buffer
	contentType, err := h.engine.Render(ctx, sess.ID, format, &buf)
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func sendPDF(c *gin.Context, res *export.Result) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	c.Header("X-Export-ID", res.ID.String())
	if res.Pages > 0 {
		c.Header("X-Page-Count", strconv.Itoa(res.Pages))
	}
	contentType := res.ContentType
	if contentType == "" {
		contentType = export.ContentType
	}
	c.Data(http.StatusOK, contentType, res.Data)
}
