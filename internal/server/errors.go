package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{target: views.ErrSessionNotFound, status: http.StatusNotFound, code: "session_not_found"},
	{target: views.ErrAdminOnly, status: http.StatusForbidden, code: "forbidden"},
	{target: dataview.ErrUnknownFilter, status: http.StatusBadRequest, code: "unknown_filter"},
	{target: dataview.ErrUnknownSortKey, status: http.StatusBadRequest, code: "unknown_sort_key"},
	{target: dataview.ErrInvalidDirection, status: http.StatusBadRequest, code: "invalid_direction"},
	{target: dataview.ErrInvalidPageSize, status: http.StatusBadRequest, code: "invalid_page_size"},
	{target: dataview.ErrUnknownRecord, status: http.StatusNotFound, code: "unknown_record"},
	{target: dataview.ErrSuperseded, status: http.StatusConflict, code: "superseded"},
	{target: views.ErrInvalidUpdate, status: http.StatusBadRequest, code: "invalid_request"},
	{target: catalog.ErrUnknownEntity, status: http.StatusBadRequest, code: "unknown_entity"},
	{target: catalog.ErrInvalidStatus, status: http.StatusBadRequest, code: "invalid_status"},
	{target: catalog.ErrStatusUnsupported, status: http.StatusBadRequest, code: "invalid_status"},
	{target: catalog.ErrRecordNotFound, status: http.StatusNotFound, code: "not_found"},
}

// writeError maps domain errors onto HTTP statuses. Catalogue failures that match no
// sentinel are upstream faults and carry the ServiceError code.
func (h *httpHandler) writeError(c *gin.Context, err error) {
	body := errorBody{Message: err.Error()}
	var serviceErr *catalog.ServiceError
	if errors.As(err, &serviceErr) {
		body.Code = serviceErr.Code()
	}
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			body.Error = mapping.code
			c.AbortWithStatusJSON(mapping.status, body)
			return
		}
	}
	if serviceErr != nil {
		body.Error = "upstream_failed"
		c.AbortWithStatusJSON(http.StatusBadGateway, body)
		return
	}
	h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal_error"})
}

func (h *httpHandler) writeBadRequest(c *gin.Context, err error) {
	body := errorBody{Error: "invalid_request"}
	if err != nil {
		body.Message = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
