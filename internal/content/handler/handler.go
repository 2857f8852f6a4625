package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lovenotes/anniversary/internal/page"
	"github.com/lovenotes/anniversary/internal/view"
)

// RegisterContentRoutes exposes the resolved content document read-only.
func RegisterContentRoutes(r gin.IRouter, mgr *page.Manager) {
	r.GET("/api/content", func(c *gin.Context) {
		values := mgr.Resolved(c.Request.Context())
		start := values[view.FieldStartDate]
		c.JSON(http.StatusOK, gin.H{
			"values":    values,
			"startDate": start,
			"elapsed":   mgr.Elapsed(time.Now()),
		})
	})
}
