package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/logger"
)

// documentRequest is the body of POST /v1/documents. Profile and output
// paths stay server-side.
type documentRequest struct {
	URL      string `json:"url" binding:"required"`
	Style    string `json:"style"`
	Kind     string `json:"kind"`
	Provider string `json:"provider"`
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) styles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": s.gen.Styles()})
}

func (s *Server) createDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBytes)

	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, jobcraft.CategoryInvalidInput, "request body too large")
			return
		}
		abort(c, http.StatusBadRequest, jobcraft.CategoryInvalidInput, "invalid request body: "+err.Error())
		return
	}

	res, err := s.gen.Generate(c.Request.Context(), jobcraft.GenerateInput{
		URL:      req.URL,
		Style:    req.Style,
		Kind:     req.Kind,
		Provider: req.Provider,
	})
	if err != nil {
		category := jobcraft.Category(err)
		abort(c, statusFor(category), category, err.Error())
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Artifact.SuggestedFilename))
	h.Set("X-Jobcraft-Pages", strconv.Itoa(res.Artifact.Pages))
	if res.Language != "" {
		h.Set("Content-Language", string(res.Language))
	}
	if len(res.FallbackSections) > 0 {
		h.Set("X-Jobcraft-Fallback-Sections", strconv.Itoa(len(res.FallbackSections)))
	}
	c.Data(http.StatusOK, "application/pdf", res.Artifact.PDF)
}

// statusFor maps an error category to an HTTP status.
func statusFor(category string) int {
	switch category {
	case jobcraft.CategoryInvalidInput, jobcraft.CategoryUnknownStyle:
		return http.StatusBadRequest
	case jobcraft.CategoryBlockedURL:
		return http.StatusUnprocessableEntity
	case jobcraft.CategoryFetchFailure, jobcraft.CategoryProviderError:
		return http.StatusBadGateway
	case jobcraft.CategoryCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = logger.Redact(message)
	body.Error.RequestID = c.GetString(requestIDKey)
	c.AbortWithStatusJSON(status, body)
}
