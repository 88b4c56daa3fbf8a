package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"autodialer/internal/campaign"
	"autodialer/internal/content"
	"autodialer/internal/dispatch"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Campaign *campaign.Service
	Dialer   *dispatch.Service
	Content  *content.Service
}

// --- Numbers ---

type ingestRequest struct {
	// Numbers is an explicit list; Text is a newline-separated blob. Either
	// works, both are merged.
	Numbers []string `json:"numbers"`
	Text    string   `json:"text"`
}

func (h Handlers) IngestNumbers(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	numbers := req.Numbers
	if req.Text != "" {
		numbers = append(numbers, strings.Split(req.Text, "\n")...)
	}
	if len(numbers) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "numbers or text required"})
		return
	}

	inserted, err := h.Campaign.Ingest(c.Request.Context(), numbers)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingest failed", "inserted": inserted})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

func (h Handlers) ListNumbers(c *gin.Context) {
	records, err := h.Campaign.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// --- Calls ---

type dispatchOneRequest struct {
	Command string `json:"command"`
}

func (h Handlers) DispatchOne(c *gin.Context) {
	var req dispatchOneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Dialer.DispatchOne(c.Request.Context(), req.Command)
	if err != nil {
		if errors.Is(err, dispatch.ErrNoNumberFound) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not find phone number in command"})
			return
		}
		// Provider rejection: the record is already marked failed.
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error(), "number": res.Number})
		return
	}
	c.JSON(http.StatusOK, gin.H{"number": res.Number, "provider_call_id": res.ProviderCallID})
}

func (h Handlers) DispatchBulk(c *gin.Context) {
	res, err := h.Dialer.DispatchBulk(c.Request.Context())
	if err != nil {
		if errors.Is(err, dispatch.ErrNoPendingNumbers) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "no pending numbers"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "bulk dispatch failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) CallStats(c *gin.Context) {
	stats, err := h.Campaign.Stats(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h Handlers) ExportCalls(c *gin.Context) {
	out, err := h.Campaign.ExportCSV(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="calls.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(out))
}

func (h Handlers) ClearAll(c *gin.Context) {
	if err := h.Campaign.Clear(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Articles ---

type generateArticleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h Handlers) GenerateArticle(c *gin.Context) {
	var req generateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Title == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	post, err := h.Content.Generate(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, content.ErrGeneratorNotConfigured) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "article generator not configured"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": post.Title, "slug": post.Slug})
}

type generateBulkRequest struct {
	Prompt string `json:"prompt"`
}

func (h Handlers) GenerateArticlesBulk(c *gin.Context) {
	var req generateBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	results, err := h.Content.GenerateBulk(c.Request.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, content.ErrGeneratorNotConfigured) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "article generator not configured"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h Handlers) ListArticles(c *gin.Context) {
	posts, err := h.Content.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h Handlers) GetArticle(c *gin.Context) {
	slug := c.Param("slug")
	post, err := h.Content.View(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, content.ErrPostNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, post)
}
