package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/middlewares"
	"github.com/softex1/tably-paket1/services"
	"github.com/softex1/tably-paket1/utils"
)

type CallController struct {
	Gate         *services.CallGate
	Calls        *services.CallService
	RecentWindow time.Duration
}

func NewCallController(gate *services.CallGate, calls *services.CallService, recentWindow time.Duration) *CallController {
	return &CallController{Gate: gate, Calls: calls, RecentWindow: recentWindow}
}

// Create -> POST /api/calls/:code/:type
func (cc *CallController) Create(c *gin.Context) {
	call, err := cc.Gate.Raise(c.Request.Context(),
		c.GetHeader(middlewares.SessionTokenHeader),
		c.Param("code"),
		c.Param("type"),
	)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Call created", call)
}

// ListActive -> GET /api/admin/calls
func (cc *CallController) ListActive(c *gin.Context) {
	calls, err := cc.Calls.ListActiveCalls(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active calls", calls)
}

// ListRecent -> GET /api/admin/calls/recent?minutes=N
func (cc *CallController) ListRecent(c *gin.Context) {
	window := cc.RecentWindow
	if raw := c.Query("minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 1 || minutes > 24*60 {
			utils.RespondError(c, utils.InvalidArgument("minutes must be between 1 and 1440"))
			return
		}
		window = time.Duration(minutes) * time.Minute
	}

	calls, err := cc.Calls.ListRecentActiveCalls(c.Request.Context(), window)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recent active calls", calls)
}

// Resolve -> POST /api/admin/calls/:id/resolve
func (cc *CallController) Resolve(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	call, err := cc.Calls.Resolve(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Call resolved", call)
}
