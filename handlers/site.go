package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lovenotes/anniversary/internal/page"
)

// RegisterSiteRoutes serves the public page. The engine must carry
// Templates() via SetHTMLTemplate.
func RegisterSiteRoutes(r gin.IRouter, mgr *page.Manager) {
	r.GET("/", func(c *gin.Context) {
		p := mgr.View(c.Request.Context())
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Page":    p,
			"Elapsed": mgr.Elapsed(time.Now()),
		})
	})
}
