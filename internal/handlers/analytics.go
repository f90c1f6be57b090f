package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hausledger/backend/internal/period"
)

// CategorySummary returns per-category totals over the queried range.
func (h *LedgerHandler) CategorySummary(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	totals, err := h.service.CategorySummary(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// Totals returns income, expenses and net over the queried range.
func (h *LedgerHandler) Totals(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	totals, err := h.service.RangeTotals(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Trends returns the zero-filled period trend series.
func (h *LedgerHandler) Trends(c *gin.Context) {
	tf, endKey, n, err := trendParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	points, err := h.service.PeriodTrends(c.Request.Context(), tf, endKey, n)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": points})
}

// CategoryTrends returns the trend series split by category.
func (h *LedgerHandler) CategoryTrends(c *gin.Context) {
	tf, endKey, n, err := trendParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	points, err := h.service.CategoryPeriodTrends(c.Request.Context(), tf, endKey, n)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": points})
}

func trendParams(c *gin.Context) (period.Timeframe, string, int, error) {
	tf, err := period.ParseTimeframe(c.DefaultQuery("timeframe", string(period.Month)))
	if err != nil {
		return "", "", 0, err
	}
	n, _ := strconv.Atoi(c.DefaultQuery("periods", "12"))
	return tf, c.Query("period"), n, nil
}

// TopMerchants ranks merchants by expense total over the queried range.
func (h *LedgerHandler) TopMerchants(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	merchants, err := h.service.TopMerchants(c.Request.Context(), start, end, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchants": merchants})
}

// MerchantStats returns detail statistics for one merchant pattern.
func (h *LedgerHandler) MerchantStats(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := h.service.MerchantStats(c.Request.Context(), c.Query("merchant"), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CategoryStats returns detail statistics for one category.
func (h *LedgerHandler) CategoryStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	start, end, err := parseRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	stats, err := h.service.CategoryStats(c.Request.Context(), id, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PeriodSummary compares a period against the previous period and the same
// period a year earlier.
func (h *LedgerHandler) PeriodSummary(c *gin.Context) {
	tf, err := period.ParseTimeframe(c.DefaultQuery("timeframe", string(period.Month)))
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.service.SummarizePeriod(c.Request.Context(), tf, c.Query("period"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UpcomingExpenses returns predicted yearly-recurring charges.
func (h *LedgerHandler) UpcomingExpenses(c *gin.Context) {
	upcoming, err := h.service.DetectUpcoming(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming})
}

// SuggestCategories returns advisory category proposals for uncategorized
// transactions.
func (h *LedgerHandler) SuggestCategories(c *gin.Context) {
	suggestions, err := h.service.SuggestCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
