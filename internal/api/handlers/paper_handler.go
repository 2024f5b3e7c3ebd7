package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/services"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type PaperHandler struct {
	svc services.PaperService
}

func NewPaperHandler(svc services.PaperService) *PaperHandler {
	return &PaperHandler{svc: svc}
}

func (h *PaperHandler) Upload(c *gin.Context) {
	const op = "PaperHandler.Upload"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}
	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(c.Request.Context(), userID, fh.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "PDF uploaded successfully",
		"pdf_id":       res.Document.PdfID,
		"preview_text": res.Preview,
		"status":       res.Document.Status,
	})
}

func (h *PaperHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	docs, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"papers": docs})
}

func (h *PaperHandler) Summary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	summary, err := h.svc.Summary(c.Request.Context(), userID, c.Query("pdf_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
