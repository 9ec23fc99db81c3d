package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/middlewares"
	"github.com/softex1/tably-paket1/services"
	"github.com/softex1/tably-paket1/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TableCode string    `json:"table_code"`
}

// CreateFromQR -> POST /api/sessions/qr/:code
func (sc *SessionController) CreateFromQR(c *gin.Context) {
	session, err := sc.Sessions.CreateSession(c.Request.Context(), c.Param("code"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session created", sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		TableCode: session.Table.Code,
	})
}

// Validate -> GET /api/sessions/validate
func (sc *SessionController) Validate(c *gin.Context) {
	valid, err := sc.Sessions.ValidateSession(c.Request.Context(), c.GetHeader(middlewares.SessionTokenHeader))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session checked", valid)
}

// ListActive -> GET /api/admin/sessions
func (sc *SessionController) ListActive(c *gin.Context) {
	sessions, err := sc.Sessions.ListActiveSessions(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active sessions", sessions)
}

// Expire -> POST /api/admin/sessions/:id/expire
func (sc *SessionController) Expire(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	session, err := sc.Sessions.ExpireSessionByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session expired", session)
}
