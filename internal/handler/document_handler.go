package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/collinsayidan/Collinalitics/internal/pkg/errcode"
	"github.com/collinsayidan/Collinalitics/internal/pkg/response"
	"github.com/collinsayidan/Collinalitics/internal/service"
)

type DocumentHandler struct {
	corpus *service.CorpusService
}

func NewDocumentHandler(corpus *service.CorpusService) *DocumentHandler {
	return &DocumentHandler{corpus: corpus}
}

type documentRequest struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	doc, err := h.corpus.CreateDocument(c.Request.Context(), req.Title, req.Slug, req.Content, req.Tags)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Upsert(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	doc, err := h.corpus.UpsertDocument(c.Request.Context(), req.Title, req.Slug, req.Content, req.Tags)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.corpus.ListDocuments(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.corpus.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.corpus.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *DocumentHandler) Rebuild(c *gin.Context) {
	count, err := h.corpus.RebuildEmbeddings(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"embeddings": count})
}

func (h *DocumentHandler) Status(c *gin.Context) {
	status, err := h.corpus.Status(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, status)
}
