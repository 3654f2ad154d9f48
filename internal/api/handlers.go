// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/sox"
	"github.com/ZSC714725/soxmanager/internal/task"

	"github.com/gin-gonic/gin"
)

// Handler holds dependencies
type Handler struct {
	store  task.Store
	sox    sox.Sox
	logger logger.Logger
}

// NewHandler creates API handler
func NewHandler(store task.Store, s sox.Sox, l logger.Logger) *Handler {
	if l == nil {
		l = logger.Nop()
	}
	return &Handler{store: store, sox: s, logger: l}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// AddJob POST /api/v1/jobs
func (h *Handler) AddJob(c *gin.Context) {
	var req JobConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	if len(req.Input) == 0 {
		errResp(c, http.StatusBadRequest, "At least one input required", "")
		return
	}

	t, err := h.store.Add(requestToConfig(&req))
	if err != nil {
		switch {
		case errors.Is(err, task.ErrTaskExists):
			errResp(c, http.StatusConflict, "Job exists", err.Error())
		case errors.Is(err, task.ErrInvalidInputAddress), errors.Is(err, task.ErrInvalidOutputAddress):
			errResp(c, http.StatusBadRequest, "Invalid address", err.Error())
		case errors.Is(err, task.ErrInvalidEffect):
			errResp(c, http.StatusBadRequest, "Invalid effect", err.Error())
		default:
			errResp(c, http.StatusBadRequest, "Invalid config", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, taskToJobConfig(t))
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	filter := c.DefaultQuery("filter", "")
	reference := c.DefaultQuery("reference", "")
	idStr := c.DefaultQuery("id", "")

	var ids []string
	if idStr != "" {
		ids = strings.FieldsFunc(idStr, func(r rune) bool { return r == ',' })
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
	}

	tasks := h.store.List(ids, reference)
	jobs := make([]Job, 0, len(tasks))
	for _, t := range tasks {
		jobs = append(jobs, taskToJob(t, filter))
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, taskToJob(t, c.DefaultQuery("filter", "")))
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// GetReport GET /api/v1/jobs/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, taskToReport(t))
}

// Command PUT /api/v1/jobs/:id/command
func (h *Handler) Command(c *gin.Context) {
	id := c.Param("id")

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var err error
	switch req.Command {
	case "start":
		err = h.store.Start(id)
	case "abort":
		err = h.store.Abort(id)
	default:
		errResp(c, http.StatusBadRequest, "Unknown command", "Known: start, abort")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		case errors.Is(err, task.ErrTaskRunning):
			errResp(c, http.StatusConflict, "Job is running", err.Error())
		default:
			errResp(c, http.StatusBadRequest, "Command failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Info GET /api/v1/info?path=
func (h *Handler) Info(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		errResp(c, http.StatusBadRequest, "Missing path", "")
		return
	}

	info, err := h.sox.Info(c.Request.Context(), path)
	if err != nil {
		var perr *sox.ProcessingError
		switch {
		case errors.Is(err, sox.ErrFileNotFound):
			errResp(c, http.StatusNotFound, "File not found", err.Error())
		case errors.Is(err, sox.ErrInvalidInput):
			errResp(c, http.StatusForbidden, "Input not allowed", err.Error())
		case errors.Is(err, sox.ErrResponseTimeout):
			errResp(c, http.StatusGatewayTimeout, "SoX timed out", err.Error())
		case errors.As(err, &perr):
			errResp(c, http.StatusUnprocessableEntity, "SoX failed", err.Error())
		default:
			h.logger.Error("info %s: %v", path, err)
			errResp(c, http.StatusInternalServerError, "Info failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, infoToAPI(path, info))
}

// Skills GET /api/v1/skills
func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.sox.Skills()))
}

// ReloadSkills POST /api/v1/skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.sox.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.sox.Skills()))
}

func requestToConfig(req *JobConfigRequest) *task.Config {
	return &task.Config{
		ID:        req.ID,
		Reference: req.Reference,
		Input:     req.Input,
		Output:    req.Output,
		Combine:   req.Combine,
		Global:    req.Global,
		Effects:   req.Effects,
		Autostart: req.Autostart,
		Upload:    req.Upload,
	}
}

func taskToJobConfig(t *task.Task) *JobConfig {
	effects := t.Config.Effects
	if effects == nil {
		effects = []string{}
	}
	return &JobConfig{
		ID:        t.ID,
		Type:      "sox",
		Reference: t.Reference,
		Input:     t.Config.Input,
		Output:    t.Config.Output,
		Combine:   t.Config.Combine,
		Global:    t.Config.Global,
		Effects:   effects,
		Autostart: t.Config.Autostart,
		Upload:    t.Config.Upload,
	}
}

func taskToState(t *task.Task) *JobState {
	status := t.Status()
	snap := t.Snapshot()

	state := &JobState{
		State:    snap.State,
		Session:  status.State,
		Runtime:  int64(status.Duration.Seconds()),
		ExitCode: snap.ExitCode,
		Error:    snap.Error,
		Object:   snap.Object,
		Progress: snap.Progress,
		Memory:   status.Memory,
		CPU:      status.CPU,
		Command:  t.CommandLine(),
	}
	if lines := t.Log(); len(lines) > 0 {
		state.LastLog = lines[len(lines)-1].String()
	}
	return state
}

func taskToReport(t *task.Task) *JobReport {
	lines := t.Log()
	report := &JobReport{CreatedAt: t.CreatedAt, Log: make([][2]string, len(lines))}
	for i, line := range lines {
		report.Log[i] = [2]string{
			line.Time.Format("2006-01-02 15:04:05.000"),
			line.String(),
		}
	}
	return report
}

func taskToJob(t *task.Task, filter string) Job {
	job := Job{
		ID:        t.ID,
		Type:      "sox",
		Reference: t.Reference,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.Snapshot().UpdatedAt.Unix(),
	}

	includeAll := filter == ""
	if includeAll || strings.Contains(filter, "config") {
		job.Config = taskToJobConfig(t)
	}
	if includeAll || strings.Contains(filter, "state") {
		job.State = taskToState(t)
	}
	if includeAll || strings.Contains(filter, "report") {
		job.Report = taskToReport(t)
	}

	return job
}
