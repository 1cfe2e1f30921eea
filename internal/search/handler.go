package search

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hsrdb/internal/textmap"
	"hsrdb/pkg/utils"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.stats)
	rg.GET("/search/text", h.searchText)
	rg.GET("/term/explain", h.explainTerm)
}

func (h *Handler) stats(c *gin.Context) {
	out, err := h.Repo.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) searchText(c *gin.Context) {
	q := c.Query("q")
	lang := textmap.LangOrDefault(c.Query("lang"))
	module := h.Repo.Set.ModuleName(c.Query("module"), "default")
	p := utils.Paging(c.Query("page"), c.Query("page_size"), 20, 100)

	items, total, err := h.Repo.TextSearch(c.Request.Context(), module, q, lang, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"q":           q,
		"lang":        lang,
		"items":       items,
		"page":        p.Page,
		"page_size":   p.Size,
		"total":       total,
		"total_pages": utils.TotalPages(total, p.Size),
	})
}

func (h *Handler) explainTerm(c *gin.Context) {
	term := c.Query("term")
	lang := textmap.LangOrDefault(c.Query("lang"))
	limit := utils.AsInt(c.Query("limit"), 5, 1, 20)
	module := h.Repo.Set.ModuleName(c.Query("module"), "default")

	if term == "" {
		c.JSON(http.StatusOK, gin.H{"term": term, "lang": lang, "used_lang": lang, "items": []TermItem{}})
		return
	}
	if runes := []rune(term); len(runes) > 64 {
		term = string(runes[:64])
	}

	items, usedLang, err := h.Repo.ExplainTerm(c.Request.Context(), module, term, lang, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "explain failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"term":      term,
		"lang":      lang,
		"used_lang": usedLang,
		"items":     items,
	})
}
