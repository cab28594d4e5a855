package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/pkg/errcode"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
	"github.com/collinsayidan/Collinalitics/internal/pkg/response"
)

func queryInt(c *gin.Context, name string, def int) int {
	value := c.Query(name)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	var vecErr *appErr.VectorizationError
	var genErr *appErr.GenerationError
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrCorpusInconsistency):
		response.Error(c, errcode.ErrCorpusInconsistency, "corpus inconsistent, rebuild required")
	case errors.As(err, &vecErr):
		if vecErr.Transient {
			response.Error(c, errcode.ErrVectorizer, "embedding temporarily unavailable, retry later")
			return
		}
		response.Error(c, errcode.ErrVectorizer, "embedding rejected the input")
	case errors.As(err, &genErr):
		if genErr.Transient {
			response.Error(c, errcode.ErrGenerator, "generation temporarily unavailable, retry later")
			return
		}
		response.Error(c, errcode.ErrGenerator, "generation rejected the input")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
