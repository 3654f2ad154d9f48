// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter registers the API routes of h on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/skills", h.Skills)
		v1.POST("/skills/reload", h.ReloadSkills)
		v1.GET("/info", h.Info)

		v1.GET("/jobs", h.ListJobs)
		v1.POST("/jobs", h.AddJob)
		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.DeleteJob)
		v1.GET("/jobs/:id/report", h.GetReport)
		v1.PUT("/jobs/:id/command", h.Command)
		v1.GET("/jobs/:id/events", h.Events)
	}

	return r
}
