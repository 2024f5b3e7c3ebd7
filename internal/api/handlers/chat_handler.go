package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phoenix-070/Edutranscribe/internal/services"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type askReq struct {
	Question string `json:"question"`
	PdfID    string `json:"pdf_id"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req askReq
	if !bindJSON(c, "ChatHandler.Ask", &req) {
		return
	}
	res, err := h.svc.Ask(c.Request.Context(), userID, req.PdfID, req.Question)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	history, err := h.svc.History(c.Request.Context(), userID, c.Param("pdf_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
