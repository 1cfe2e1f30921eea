package dialogue

import (
	"net/http"
	"strconv"

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
	rg.GET("/search/dialogue", h.search)
	rg.GET("/dialogue/:id/refs", h.refs)
}

func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	lang := textmap.LangOrDefault(c.Query("lang"))
	order := c.DefaultQuery("order", "asc")
	if order != "desc" {
		order = "asc"
	}
	p := utils.Paging(c.Query("page"), c.Query("page_size"), 20, 100)

	items, total, err := h.Repo.Search(c.Request.Context(), q, lang, order, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"q":           q,
		"lang":        lang,
		"order":       order,
		"items":       items,
		"page":        p.Page,
		"page_size":   p.Size,
		"total":       total,
		"total_pages": utils.TotalPages(total, p.Size),
	})
}

func (h *Handler) refs(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad talk sentence id"})
		return
	}
	p := utils.Paging(c.Query("page"), c.Query("page_size"), 30, 200)

	items, total, err := h.Repo.Refs(c.Request.Context(), id, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refs failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"talk_sentence_id": id,
		"items":            items,
		"page":             p.Page,
		"page_size":        p.Size,
		"total":            total,
		"total_pages":      utils.TotalPages(total, p.Size),
	})
}
