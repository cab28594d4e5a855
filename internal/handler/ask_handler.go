package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collinsayidan/Collinalitics/internal/pkg/errcode"
	"github.com/collinsayidan/Collinalitics/internal/pkg/response"
	"github.com/collinsayidan/Collinalitics/internal/service"
)

type AskHandler struct {
	answers *service.AnswerService
}

func NewAskHandler(answers *service.AnswerService) *AskHandler {
	return &AskHandler{answers: answers}
}

type askRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	result, err := h.answers.Answer(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type searchResult struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	ChunkText  string  `json:"chunk_text"`
	Score      float64 `json:"score"`
}

func (h *AskHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		response.Error(c, errcode.ErrInvalid, "q required")
		return
	}
	chunks, err := h.answers.Search(c.Request.Context(), query, queryInt(c, "k", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	results := make([]searchResult, 0, len(chunks))
	for _, ch := range chunks {
		results = append(results, searchResult{
			DocumentID: ch.Document.ID,
			Title:      ch.Document.Title,
			Slug:       ch.Document.Slug,
			ChunkText:  ch.ChunkText,
			Score:      ch.Score,
		})
	}
	response.Success(c, gin.H{"results": results})
}

func (h *AskHandler) History(c *gin.Context) {
	items, err := h.answers.History(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"interactions": items})
}
