package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/services"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

// PipelineHandler serves the video transcript, summary, translation and
// speech endpoints.
type PipelineHandler struct {
	transcripts services.TranscriptionService
	summaries   services.SummaryService
	translator  services.TranslationService
	speech      services.SpeechService
}

func NewPipelineHandler(t services.TranscriptionService, s services.SummaryService, tr services.TranslationService, sp services.SpeechService) *PipelineHandler {
	return &PipelineHandler{transcripts: t, summaries: s, translator: tr, speech: sp}
}

type transcribeReq struct {
	URL string `json:"url"`
}

func (h *PipelineHandler) Transcribe(c *gin.Context) {
	const op = "PipelineHandler.Transcribe"

	var req transcribeReq
	if !bindJSON(c, op, &req) {
		return
	}
	if req.URL == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "url is required", nil))
		return
	}
	out, err := h.transcripts.Transcribe(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type summarizeReq struct {
	Text string `json:"text"`
}

func (h *PipelineHandler) Summarize(c *gin.Context) {
	const op = "PipelineHandler.Summarize"

	var req summarizeReq
	if !bindJSON(c, op, &req) {
		return
	}
	summary, err := h.summaries.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

type translateReq struct {
	Text           string                   `json:"text"`
	TargetLanguage string                   `json:"target_language"`
	Method         models.TranslationMethod `json:"method"`
}

func (h *PipelineHandler) Translate(c *gin.Context) {
	const op = "PipelineHandler.Translate"

	var req translateReq
	if !bindJSON(c, op, &req) {
		return
	}
	out, err := h.translator.Translate(c.Request.Context(), req.Text, req.TargetLanguage, req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"translated_text": out})
}

// Speech answers a form post with MP3 bytes.
func (h *PipelineHandler) Speech(c *gin.Context) {
	audio, err := h.speech.Synthesize(c.Request.Context(), c.PostForm("text"), c.DefaultPostForm("lang", "en"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="speech.mp3"`)
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
