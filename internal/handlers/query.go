package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contractsense/contractsense-backend/internal/middleware"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/services"
)

type QueryHandler struct {
	queryService services.QueryService
}

func NewQueryHandler(queryService services.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

type askRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

// Ask answers a question against one document. An all-document search
// is the same endpoint with the zero uuid as :id.
func (qh *QueryHandler) Ask(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("QueryHandler.Ask", "document id must be a uuid"))
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("QueryHandler.Ask", "question is required"))
		return
	}
	sessionID := uuid.Nil
	if req.SessionID != "" {
		sessionID, err = uuid.Parse(req.SessionID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
				errors.InvalidInput("QueryHandler.Ask", "session_id must be a uuid"))
			return
		}
	}

	resp, err := qh.queryService.Ask(c.Request.Context(), middleware.UserID(c), documentID, sessionID, req.Question)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"response": resp, "citations": resp.CitationList()})
}

func (qh *QueryHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
				errors.InvalidInput("QueryHandler.History", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	history, err := qh.queryService.History(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"queries": history})
}

func (qh *QueryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("QueryHandler.Delete", "query id must be a uuid"))
		return
	}
	if err := qh.queryService.DeleteResponse(c.Request.Context(), middleware.UserID(c), id); err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (qh *QueryHandler) ClearSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("QueryHandler.ClearSession", "session id must be a uuid"))
		return
	}
	n, err := qh.queryService.DeleteSession(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"session_id": id, "deleted": n})
}

func (qh *QueryHandler) Suggestions(c *gin.Context) {
	sugg, err := qh.queryService.Suggestions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"suggestions": sugg})
}
