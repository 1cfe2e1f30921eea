package monster

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hsrdb/internal/textmap"
	"hsrdb/pkg/utils"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search/monster", h.search)
	rg.GET("/monster/facets", h.facets)
	rg.GET("/monster/:id", h.detail)
}

func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	lang := textmap.LangOrDefault(c.Query("lang"))
	rank := c.Query("rank")
	weakness := c.Query("weakness")
	p := utils.Paging(c.Query("page"), c.Query("page_size"), 20, 100)

	items, total, err := h.Service.Search(q, lang, rank, weakness, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"q":           q,
		"lang":        lang,
		"rank":        rank,
		"weakness":    weakness,
		"items":       items,
		"page":        p.Page,
		"page_size":   p.Size,
		"total":       total,
		"total_pages": utils.TotalPages(total, p.Size),
	})
}

func (h *Handler) detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad monster id"})
		return
	}
	lang := textmap.LangOrDefault(c.Query("lang"))

	detail, err := h.Service.Detail(id, lang)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "detail failed"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "monster_id": id})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) facets(c *gin.Context) {
	facets, err := h.Service.FacetValues()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "facets failed"})
		return
	}
	c.JSON(http.StatusOK, facets)
}
