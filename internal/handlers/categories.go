package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryPayload struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// ListCategories returns the category taxonomy.
func (h *LedgerHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns one category.
func (h *LedgerHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := h.service.GetCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory adds a user-defined category.
func (h *LedgerHandler) CreateCategory(c *gin.Context) {
	var payload categoryPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), payload.Name, payload.Icon)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory renames a category or changes its icon.
func (h *LedgerHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var payload categoryPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), id, payload.Name, payload.Icon)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category.
func (h *LedgerHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
