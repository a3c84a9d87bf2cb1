package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contractsense/contractsense-backend/internal/middleware"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/services"
)

type DocumentHandler struct {
	documentService services.DocumentService
}

func NewDocumentHandler(documentService services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload ingests one multipart file under the form field "file". The
// pipeline runs inline, so a 200 means the document is ready (or the
// upload was a duplicate of one already ingested).
func (dh *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("DocumentHandler.Upload", "multipart field \"file\" is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}

	res, err := dh.documentService.Upload(c.Request.Context(), middleware.UserID(c), fileHeader.Filename, data)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"document": res.Document, "duplicate": res.Duplicate})
}

func (dh *DocumentHandler) List(c *gin.Context) {
	docs, err := dh.documentService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}

func (dh *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("DocumentHandler.Get", "document id must be a uuid"))
		return
	}
	doc, err := dh.documentService.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

func (dh *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(errors.KindInvalidInput),
			errors.InvalidInput("DocumentHandler.Delete", "document id must be a uuid"))
		return
	}
	if err := dh.documentService.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		RespondTaxonomy(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}
