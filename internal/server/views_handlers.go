package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createViewRequest struct {
	Entity   string `json:"entity" binding:"required"`
	PageSize int    `json:"page_size" binding:"omitempty,min=1,max=500"`
}

type toggleSortRequest struct {
	Key string `json:"key" binding:"required"`
}

type toggleRowRequest struct {
	ID string `json:"id" binding:"required"`
}

type viewResponse struct {
	ID        string     `json:"id"`
	Entity    string     `json:"entity"`
	CreatedAt time.Time  `json:"created_at"`
	Page      views.Page `json:"page"`
	Moved     *bool      `json:"moved,omitempty"`
}

type activateResponse struct {
	Activated bool `json:"activated"`
	Record    any  `json:"record,omitempty"`
}

func (h *httpHandler) handleCreateView(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	var request createViewRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.writeBadRequest(c, err)
		return
	}
	entity, err := catalog.ParseEntity(request.Entity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	session, err := h.registry.Create(c.Request.Context(), viewer, entity, request.PageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.logger.Debug("view session opened",
		zap.String("session_id", session.ID),
		zap.String("entity", session.Entity),
		zap.String("user_id", viewer.UserID))
	c.JSON(http.StatusCreated, renderSession(session, nil))
}

func (h *httpHandler) handleGetView(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderSession(session, nil))
}

func (h *httpHandler) handleUpdateView(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var update views.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.writeBadRequest(c, err)
		return
	}
	if err := session.Table.Apply(update); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderSession(session, nil))
}

func (h *httpHandler) handleDeleteView(c *gin.Context) {
	viewer, _ := viewerFrom(c)
	if err := h.registry.Delete(viewer, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleReloadView refetches the dataset. A failed fetch is reported in page.error.
func (h *httpHandler) handleReloadView(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := session.Table.Reload(c.Request.Context()); err != nil {
		if errors.Is(err, dataview.ErrSuperseded) {
			h.writeError(c, err)
			return
		}
		h.logger.Warn("table reload failed",
			zap.String("session_id", session.ID),
			zap.String("entity", session.Entity),
			zap.Error(err))
	}
	c.JSON(http.StatusOK, renderSession(session, nil))
}

func (h *httpHandler) handleToggleSort(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request toggleSortRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.writeBadRequest(c, err)
		return
	}
	if err := session.Table.ToggleSort(request.Key); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderSession(session, nil))
}

func (h *httpHandler) handleNextPage(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	moved := session.Table.NextPage()
	c.JSON(http.StatusOK, renderSession(session, &moved))
}

func (h *httpHandler) handlePrevPage(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	moved := session.Table.PrevPage()
	c.JSON(http.StatusOK, renderSession(session, &moved))
}

func (h *httpHandler) handleToggleRow(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var request toggleRowRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.writeBadRequest(c, err)
		return
	}
	if err := session.Table.ToggleOne(request.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderSession(session, nil))
}

func (h *httpHandler) handleToggleAll(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	session.Table.ToggleAllOnPage()
	c.JSON(http.StatusOK, renderSession(session, nil))
}

func (h *httpHandler) handleActivateRow(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	// An empty body is a click on the row itself.
	var event dataview.ActivationEvent
	if err := c.ShouldBindJSON(&event); err != nil && !errors.Is(err, io.EOF) {
		h.writeBadRequest(c, err)
		return
	}
	record, activated, err := session.Table.Activate(event, c.Param("rowID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activateResponse{Activated: activated, Record: record})
}

// handleExport streams the filtered and sorted dataset, every page, as CSV.
func (h *httpHandler) handleExport(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var buffer bytes.Buffer
	if err := session.Table.ExportCSV(&buffer); err != nil {
		h.writeError(c, err)
		return
	}
	filename := fmt.Sprintf("%s-%s.csv", session.Entity, h.now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buffer.Bytes())
}

func (h *httpHandler) lookupSession(c *gin.Context) (*views.Session, bool) {
	viewer, ok := viewerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return nil, false
	}
	session, err := h.registry.Get(viewer, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return session, true
}

func renderSession(session *views.Session, moved *bool) viewResponse {
	return viewResponse{
		ID:        session.ID,
		Entity:    session.Entity,
		CreatedAt: session.CreatedAt,
		Page:      session.Table.Render(),
		Moved:     moved,
	}
}
