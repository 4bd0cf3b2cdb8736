package web

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fraudguard/detector"
)

// NewRouter builds the gin engine serving the navigation shell: Home,
// Fraud Check, Batch Upload and My Profile, plus download, health and
// metrics endpoints.
func NewRouter(svc *detector.Service, logger *log.Logger) *gin.Engine {
	h := NewHandler(svc, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(loadTemplates())

	r.GET("/", h.Home)
	r.GET("/profile", h.Profile)
	r.GET("/check", h.CheckForm)
	r.POST("/check", h.CheckSubmit)
	r.GET("/batch", h.BatchForm)
	r.POST("/batch", h.BatchSubmit)
	r.GET("/download/:id", h.Download)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
