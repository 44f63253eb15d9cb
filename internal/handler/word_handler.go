package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/catalog"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
)

// WordHandler serves the word catalog.
type WordHandler struct {
	words *catalog.Catalog
}

// NewWordHandler creates a new WordHandler.
func NewWordHandler(words *catalog.Catalog) *WordHandler {
	return &WordHandler{words: words}
}

// ListWords godoc
// GET /api/v1/words
// Returns every word card in presentation order.
func (h *WordHandler) ListWords(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"words": h.words.All(),
		"total": h.words.Len(),
	})
}

// GetWord godoc
// GET /api/v1/words/:id
func (h *WordHandler) GetWord(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	word, ok := h.words.Get(id)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrWordNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"word": word})
}
