package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hausledger/backend/internal/handlers"
	"github.com/hausledger/backend/internal/service"
)

// RegisterRoutes wires all ledger endpoints onto the engine. authMiddleware
// guards everything under /api except the health check.
func RegisterRoutes(r *gin.Engine, svc *service.LedgerService, authMiddleware gin.HandlerFunc) {
	h := handlers.NewLedgerHandler(svc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(authMiddleware)

	uploads := api.Group("/uploads")
	uploads.POST("", h.Upload)
	uploads.GET("", h.ListUploads)
	uploads.GET("/:id", h.GetUpload)
	uploads.DELETE("/:id", h.DeleteUpload)

	tx := api.Group("/transactions")
	tx.GET("", h.ListTransactions)
	tx.GET("/:id", h.GetTransaction)
	tx.DELETE("/:id", h.DeleteTransaction)
	tx.POST("/:id/categorize", h.Categorize)
	tx.PUT("/:id/category", h.SetCategory)
	tx.POST("/:id/multi-merchant", h.MarkMultiMerchant)
	tx.DELETE("/:id/multi-merchant", h.UnmarkMultiMerchant)

	categories := api.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.GET("/:id", h.GetCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
		categories.GET("/:id/stats", h.CategoryStats)
	}

	analytics := api.Group("/analytics")
	{
		analytics.GET("/summary", h.CategorySummary)
		analytics.GET("/totals", h.Totals)
		analytics.GET("/trends", h.Trends)
		analytics.GET("/category-trends", h.CategoryTrends)
		analytics.GET("/top-merchants", h.TopMerchants)
		analytics.GET("/merchant-stats", h.MerchantStats)
		analytics.GET("/period-summary", h.PeriodSummary)
	}

	api.GET("/recurring/upcoming", h.UpcomingExpenses)
	api.GET("/suggestions", h.SuggestCategories)
}
