package item

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
	rg.GET("/search/item", h.search)
	rg.GET("/item/facets", h.facets)
	rg.GET("/item/:id", h.detail)
}

func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	lang := textmap.LangOrDefault(c.Query("lang"))
	p := utils.Paging(c.Query("page"), c.Query("page_size"), 20, 100)
	f := Filter{
		Rarity:       c.Query("rarity"),
		ItemMainType: c.Query("item_main_type"),
		ItemSubType:  c.Query("item_sub_type"),
	}

	items, total, err := h.Repo.Search(c.Request.Context(), q, lang, f, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"q":              q,
		"lang":           lang,
		"rarity":         f.Rarity,
		"item_main_type": f.ItemMainType,
		"item_sub_type":  f.ItemSubType,
		"items":          items,
		"page":           p.Page,
		"page_size":      p.Size,
		"total":          total,
		"total_pages":    utils.TotalPages(total, p.Size),
	})
}

func (h *Handler) detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad item id"})
		return
	}
	lang := textmap.LangOrDefault(c.Query("lang"))

	detail, err := h.Repo.Detail(c.Request.Context(), id, lang)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "detail failed"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "item_id": id})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) facets(c *gin.Context) {
	facets, err := h.Repo.FacetValues(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "facets failed"})
		return
	}
	c.JSON(http.StatusOK, facets)
}
