package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hausledger/backend/internal/store"
)

// ListTransactions returns one page of the filtered ledger.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	var filter store.TransactionFilter

	if v := c.Query("categoryId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return
		}
		filter.CategoryID = &id
	}
	filter.Uncategorized = c.Query("uncategorized") == "true"
	filter.MerchantQuery = c.Query("merchant")
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	if v := c.Query("start"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
			return
		}
		filter.Start = &t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return
		}
		filter.End = &t
	}

	txs, total, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"total":        total,
		"page":         filter.Page,
		"pageSize":     filter.PageSize,
	})
}

// GetTransaction returns one ledger entry.
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := h.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// DeleteTransaction removes one ledger entry.
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTransaction(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted"})
}

// Categorize assigns a category to a transaction and propagates it to other
// uncategorized rows of the same merchant.
func (h *LedgerHandler) Categorize(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var payload struct {
		CategoryID string `json:"categoryId"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	categoryID, err := uuid.Parse(payload.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
		return
	}

	updated, err := h.service.Categorize(c.Request.Context(), id, categoryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// SetCategory sets or clears one transaction's category without touching
// the merchant mappings.
func (h *LedgerHandler) SetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var payload struct {
		CategoryID *string `json:"categoryId"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	var categoryID *uuid.UUID
	if payload.CategoryID != nil {
		parsed, err := uuid.Parse(*payload.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return
		}
		categoryID = &parsed
	}

	if err := h.service.SetCategory(c.Request.Context(), id, categoryID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category updated"})
}

// MarkMultiMerchant flags a transaction's merchant as covering unrelated
// businesses so it is never auto-categorized.
func (h *LedgerHandler) MarkMultiMerchant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.MarkMultiMerchant(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "merchant marked multi-merchant"})
}

// UnmarkMultiMerchant removes the multi-merchant flag.
func (h *LedgerHandler) UnmarkMultiMerchant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.UnmarkMultiMerchant(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "multi-merchant flag removed"})
}
