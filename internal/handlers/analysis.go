package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/middleware"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/services"
)

type AnalysisHandler struct {
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

func (ah *AnalysisHandler) Run(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("AnalysisHandler.Run", "document id must be a uuid"))
		return
	}
	run, err := ah.analysisService.Run(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, analysisPayload(run))
}

func (ah *AnalysisHandler) Latest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("AnalysisHandler.Latest", "document id must be a uuid"))
		return
	}
	run, err := ah.analysisService.Latest(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, analysisPayload(run))
}

func analysisPayload(run *types.ContractAnalysis) gin.H {
	return gin.H{
		"analysis":   run,
		"findings":   run.FindingList(),
		"risk_flags": run.RiskFlagList(),
		"missing":    run.MissingTypes(),
	}
}
