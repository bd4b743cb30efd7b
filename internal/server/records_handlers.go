package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/notify"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type mutationResponse struct {
	ID              string `json:"id"`
	Entity          string `json:"entity"`
	Status          string `json:"status,omitempty"`
	Deleted         bool   `json:"deleted,omitempty"`
	SessionsUpdated int    `json:"sessions_updated"`
}

// handleUpdateStatus persists a status change, patches every live table showing the
// record, and notifies the record owner's dashboards.
func (h *httpHandler) handleUpdateStatus(c *gin.Context) {
	viewer, _ := viewerFrom(c)
	entity, err := catalog.ParseEntity(c.Param("entity"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	var request statusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.writeBadRequest(c, err)
		return
	}
	status, err := entity.ValidateStatus(request.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	id := c.Param("id")
	owner, ok := h.authorizeMutation(c, viewer, entity, id, canChangeStatus)
	if !ok {
		return
	}
	if err := h.source.UpdateStatus(c.Request.Context(), entity, id, status); err != nil {
		h.writeError(c, err)
		return
	}

	updated := 0
	h.registry.ForEach(entity, func(session *views.Session) {
		if session.Table.SetStatus(id, status) {
			updated++
		}
	})
	h.hub.Publish(notify.Event{
		OwnerID:   owner,
		Type:      notify.EventStatusChanged,
		Entity:    entity.String(),
		RecordIDs: []string{id},
		Status:    status,
		Timestamp: h.now().UTC(),
	})
	h.logger.Info("record status updated",
		zap.String("entity", entity.String()),
		zap.String("record_id", id),
		zap.String("status", status),
		zap.String("user_id", viewer.UserID))

	c.JSON(http.StatusOK, mutationResponse{ID: id, Entity: entity.String(), Status: status, SessionsUpdated: updated})
}

func (h *httpHandler) handleDeleteRecord(c *gin.Context) {
	viewer, _ := viewerFrom(c)
	entity, err := catalog.ParseEntity(c.Param("entity"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	id := c.Param("id")
	owner, ok := h.authorizeMutation(c, viewer, entity, id, canDelete)
	if !ok {
		return
	}
	if err := h.source.Delete(c.Request.Context(), entity, id); err != nil {
		h.writeError(c, err)
		return
	}

	updated := 0
	h.registry.ForEach(entity, func(session *views.Session) {
		if session.Table.Remove(id) {
			updated++
		}
	})
	h.hub.Publish(notify.Event{
		OwnerID:   owner,
		Type:      notify.EventRecordsRemoved,
		Entity:    entity.String(),
		RecordIDs: []string{id},
		Timestamp: h.now().UTC(),
	})
	h.logger.Info("record deleted",
		zap.String("entity", entity.String()),
		zap.String("record_id", id),
		zap.String("user_id", viewer.UserID))

	c.JSON(http.StatusOK, mutationResponse{ID: id, Entity: entity.String(), Deleted: true, SessionsUpdated: updated})
}

// mutationRule reports whether a non-admin owner may apply the mutation.
type mutationRule func(entity catalog.Entity) bool

// Artists may revoke their own invitations; every other status workflow is moderated.
func canChangeStatus(entity catalog.Entity) bool {
	return entity == catalog.EntityInvitations
}

// Artists may delete their own records, except payouts and the admin directories.
func canDelete(entity catalog.Entity) bool {
	switch entity {
	case catalog.EntityWithdrawals, catalog.EntityArtists, catalog.EntityStores:
		return false
	default:
		return true
	}
}

// authorizeMutation resolves the record owner and checks the viewer may act on it.
// Records owned by someone else are reported missing to non-admin viewers.
func (h *httpHandler) authorizeMutation(c *gin.Context, viewer views.Viewer, entity catalog.Entity, id string, allowed mutationRule) (string, bool) {
	owner, err := h.source.Owner(c.Request.Context(), entity, id)
	if err != nil {
		h.writeError(c, err)
		return "", false
	}
	if viewer.IsAdmin() {
		return owner, true
	}
	if owner != viewer.UserID {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "not_found"})
		return "", false
	}
	if !allowed(entity) {
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "forbidden"})
		return "", false
	}
	return owner, true
}
