package avatar

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
	rg.GET("/search/avatar", h.search)
	rg.GET("/avatar/:id", h.detail)
}

func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	lang := textmap.LangOrDefault(c.Query("lang"))
	p := utils.Paging(c.Query("page"), c.Query("page_size"), 20, 100)

	items, total, err := h.Repo.Search(c.Request.Context(), q, lang, p)
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

func (h *Handler) detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad avatar id"})
		return
	}
	lang := textmap.LangOrDefault(c.Query("lang"))
	skillLevelLimit := utils.AsInt(c.Query("skill_level_limit"), 10, 1, 20)
	levelMax := utils.AsInt(c.Query("level_max"), 80, 1, 80)

	detail, err := h.Repo.Detail(c.Request.Context(), id, lang, skillLevelLimit, levelMax)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "detail failed"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "avatar_id": id})
		return
	}
	c.JSON(http.StatusOK, detail)
}
