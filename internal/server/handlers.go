package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loykin/welltrack/internal/auth"
	"github.com/loykin/welltrack/internal/metrics"
	"github.com/loykin/welltrack/internal/record"
)

type okResp struct {
	OK bool `json:"ok"`
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
}

// LoginResponse carries the session token issued by POST /login.
type LoginResponse struct {
	Username string      `json:"username"`
	Role     auth.Role   `json:"role"`
	Token    *auth.Token `json:"token"`
}

type recordReq struct {
	StartDate *record.Date `json:"start_date"`
	EndDate   *record.Date `json:"end_date"`
}

type anchorReq struct {
	Date *record.Date `json:"date"`
}

type workflowReq struct {
	Workflow string `json:"workflow" binding:"required"`
}

// WorkflowResponse describes the stage sequence of a well.
type WorkflowResponse struct {
	Well     string         `json:"well"`
	Workflow string         `json:"workflow"`
	Stages   []string       `json:"stages"`
	KPI      map[string]int `json:"kpi,omitempty"`
}

func (r *Router) handleLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}
	result, err := r.auth.Login(c.Request.Context(), req.Username)
	if err != nil {
		if auth.IsAuthError(err) {
			metrics.IncAuthFailure("auth")
			r.log.Warn("login rejected", "username", req.Username)
		}
		r.handleError(c, err)
		return
	}
	r.log.Info("user logged in", "username", result.Username, "role", string(result.Role))
	c.JSON(http.StatusOK, LoginResponse{Username: result.Username, Role: result.Role, Token: result.Token})
}

func (r *Router) handleHealth(c *gin.Context) {
	if err := r.svc.Ping(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) today(c *gin.Context) (record.Date, bool) {
	today, err := parseToday(c, r.svc.Today())
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return record.Date{}, false
	}
	return today, true
}

func (r *Router) handleListWells(c *gin.Context) {
	today, ok := r.today(c)
	if !ok {
		return
	}
	sums, err := r.svc.Summaries(c.Request.Context(), today)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sums)
}

func (r *Router) handleWellReport(c *gin.Context) {
	today, ok := r.today(c)
	if !ok {
		return
	}
	rep, err := r.svc.WellReport(c.Request.Context(), c.Param("well"), today)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (r *Router) handleListRecords(c *gin.Context) {
	recs, err := r.svc.Records(c.Request.Context(), c.Param("well"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (r *Router) handleGetRecord(c *gin.Context) {
	rec, err := r.svc.Get(c.Request.Context(), c.Param("well"), c.Param("process"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (r *Router) handlePutRecord(c *gin.Context) {
	var req recordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}
	rec := record.New(c.Param("well"), c.Param("process"), optionalDate(req.StartDate), optionalDate(req.EndDate))
	saved, err := r.svc.Upsert(c.Request.Context(), rec, auth.Actor(c))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (r *Router) handlePutAnchor(c *gin.Context) {
	var req anchorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}
	date := optionalDate(req.Date)
	if date == nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "date is required")
		return
	}
	saved, err := r.svc.SetAnchor(c.Request.Context(), c.Param("well"), *date, auth.Actor(c))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (r *Router) handleRequestDelete(c *gin.Context) {
	p, err := r.svc.RequestDelete(c.Request.Context(), c.Param("well"), c.Param("process"), auth.Actor(c))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, p)
}

func (r *Router) handleConfirmDelete(c *gin.Context) {
	p, err := r.svc.ConfirmDelete(c.Request.Context(), c.Param("token"), auth.Actor(c))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Router) handleCancelDelete(c *gin.Context) {
	if err := r.svc.CancelDelete(c.Request.Context(), c.Param("token"), auth.Actor(c)); err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleGetWorkflow(c *gin.Context) {
	well := c.Param("well")
	wf, err := r.svc.Workflow(c.Request.Context(), well)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, WorkflowResponse{Well: well, Workflow: wf.Name, Stages: wf.Stages, KPI: wf.KPI})
}

func (r *Router) handlePutWorkflow(c *gin.Context) {
	var req workflowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}
	well := c.Param("well")
	wf, err := r.svc.SetWorkflow(c.Request.Context(), well, req.Workflow, auth.Actor(c))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, WorkflowResponse{Well: well, Workflow: wf.Name, Stages: wf.Stages, KPI: wf.KPI})
}

func (r *Router) handleDashboard(c *gin.Context) {
	today, ok := r.today(c)
	if !ok {
		return
	}
	d, err := r.svc.Dashboard(c.Request.Context(), today)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
